package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpper(t *testing.T) {
	assert.Equal(t, "", Upper("   "))
	assert.Equal(t, "JOSE GARCIA", Upper("  José   García "))
	assert.Equal(t, "FRANCOIS", Upper("François"))
	assert.Equal(t, "MULLER", Upper("Müller"))
}

func TestFold_Transliterates(t *testing.T) {
	assert.Equal(t, "Lodz", Fold("Łódź"))
	assert.Equal(t, "plain", Fold("plain"))
}

func TestBlank(t *testing.T) {
	for _, in := range []string{"(blank)", " NaN ", "None", "", "null"} {
		assert.Equal(t, "", Blank(in), in)
	}
	assert.Equal(t, "Suite 4", Blank(" Suite 4 "))
}

func TestCleanZip(t *testing.T) {
	tests := []struct {
		zip, country string
		want         string
		ok           bool
	}{
		{"78701", "US", "78701", true},
		{"78701-1234", "US", "78701", true},
		{"787011234", "US", "78701", true},
		{"2134", "US", "02134", true},
		{"02134", "", "02134", true},
		{"K1A 0B1", "CA", "K1A0B1", true},
		{"k1a-0b1", "CA", "K1A0B1", true},
		{"K1A 0B1", "", "K1A0B1", true},
		{"K1A0B", "CA", "", false},
		{"123", "US", "", false},
		{"ABCDE", "US", "", false},
		{"1010", "NZ", "", false},
		{"", "US", "", false},
		{"SW1A 1AA", "", "", false},
	}
	for _, tt := range tests {
		got, ok := CleanZip(tt.zip, tt.country)
		assert.Equal(t, tt.ok, ok, "%q/%q", tt.zip, tt.country)
		assert.Equal(t, tt.want, got, "%q/%q", tt.zip, tt.country)
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in   string
		want Name
	}{
		{"", Name{}},
		{"Cher", Name{First: "CHER"}},
		{"jane doe", Name{First: "JANE", Last: "DOE"}},
		{"John Q. Public", Name{First: "JOHN", Middle: "Q", MiddleInitial: "Q", Last: "PUBLIC"}},
		{"Mary Ann Lee Smith", Name{First: "MARY", Middle: "ANN LEE", MiddleInitial: "A", Last: "SMITH"}},
		{"O'Brien, Pat", Name{First: "OBRIEN", Last: "PAT"}},
		{"  José   Núñez  ", Name{First: "JOSE", Last: "NUNEZ"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitName(tt.in), tt.in)
	}
}

func TestStreetType(t *testing.T) {
	assert.Equal(t, "ST", StreetType("Street"))
	assert.Equal(t, "AVE", StreetType("avenue."))
	assert.Equal(t, "BLVD", StreetType("BOULEVARD"))
	assert.Equal(t, "EXPY", StreetType("Expressway"))
	assert.Equal(t, "ALLEY", StreetType("alley"))
	assert.True(t, IsStreetType("Rd."))
	assert.False(t, IsStreetType("MAIN"))
}

func TestNormalizeHouseNumber(t *testing.T) {
	assert.Equal(t, "", NormalizeHouseNumber(""))
	assert.Equal(t, "42", NormalizeHouseNumber("0042"))
	assert.Equal(t, "1234", NormalizeHouseNumber("12 34"))
	assert.Equal(t, "12B", NormalizeHouseNumber("12 b"))
	assert.Equal(t, "0", NormalizeHouseNumber("000"))
	// trailing zeros are significant
	assert.Equal(t, "100", NormalizeHouseNumber("100"))
	assert.Equal(t, "2500", NormalizeHouseNumber("02500"))
}

func TestCountryCode(t *testing.T) {
	code, ok := CountryCode("United States")
	assert.True(t, ok)
	assert.Equal(t, "US", code)

	code, ok = CountryCode("british columbia")
	assert.True(t, ok)
	assert.Equal(t, "CA", code)

	code, ok = CountryCode("Hong Kong (SAR)")
	assert.True(t, ok)
	assert.Equal(t, "HK", code)

	_, ok = CountryCode("France")
	assert.False(t, ok)
}

func TestStateCountry(t *testing.T) {
	c, ok := StateCountry("ca")
	assert.True(t, ok)
	assert.Equal(t, "US", c, "CA is California")

	c, ok = StateCountry("ON")
	assert.True(t, ok)
	assert.Equal(t, "CA", c)

	c, ok = StateCountry("Yukon")
	assert.True(t, ok)
	assert.Equal(t, "CA", c)

	_, ok = StateCountry("")
	assert.False(t, ok)

	assert.True(t, IsStateCode("pr"))
	assert.False(t, IsStateCode("XX"))
	assert.True(t, IsTwoLetter("xx"))
	assert.False(t, IsTwoLetter("X1"))
	assert.False(t, IsTwoLetter("TEX"))
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in   string
		want Address
	}{
		{"", Address{}},
		{
			"123 Main Street, Austin, TX 78701",
			Address{Number: "123", StreetName: "MAIN", StreetType: "ST", City: "AUSTIN", State: "TX", Zip: "78701"},
		},
		{
			"456 Oak Ave Apt 4B",
			Address{Number: "456", StreetName: "OAK", StreetType: "AVE", UnitType: "APT", UnitNumber: "4B"},
		},
		{
			"789 Elm St., Suite 200",
			Address{Number: "789", StreetName: "ELM", StreetType: "ST", UnitType: "STE", UnitNumber: "200"},
		},
		{
			"1 Yonge St, Toronto, ON M5E 1W7",
			Address{Number: "1", StreetName: "YONGE", StreetType: "ST", City: "TORONTO", State: "ON", Zip: "M5E 1W7"},
		},
		{
			"123 Main St Austin TX 78701",
			Address{Number: "123", StreetName: "MAIN", StreetType: "ST", City: "AUSTIN", State: "TX", Zip: "78701"},
		},
		{
			"100 Main St #5",
			Address{Number: "100", StreetName: "MAIN", StreetType: "ST", UnitNumber: "5"},
		},
		{
			"0042 Pine Rd",
			Address{Number: "42", StreetName: "PINE", StreetType: "RD"},
		},
		{
			"100 Court St",
			Address{Number: "100", StreetName: "COURT", StreetType: "ST"},
		},
		{
			"12 Rue Principale",
			Address{Number: "12", StreetName: "RUE PRINCIPALE"},
		},
		{
			"PO Box 123",
			Address{StreetName: "PO BOX 123"},
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseAddress(tt.in), tt.in)
	}
}

func TestParserFunc(t *testing.T) {
	p := ParserFunc(func(string) Address { return Address{City: "X"} })
	assert.Equal(t, "X", p.Parse("anything").City)
	assert.True(t, Address{}.Empty())
	assert.False(t, DefaultParser.Parse("1 Main St").Empty())
}
