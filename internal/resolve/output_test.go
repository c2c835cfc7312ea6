package resolve

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payasparab/addressmatcher/internal/model"
)

func TestBestPerA(t *testing.T) {
	cands := []model.Candidate{
		{IDA: "a1", IDB: "b1", Score: 70},
		{IDA: "a2", IDB: "b1", Score: 95},
		{IDA: "a1", IDB: "b2", Score: 88},
		{IDA: "a1", IDB: "b3", Score: 88},
		{IDA: "a3", IDB: "b4", Failure: &model.Failure{Reason: model.FailureMissingRecordID}},
	}
	got := BestPerA(cands)
	require.Len(t, got, 2)
	assert.Equal(t, "b2", got[0].IDB, "highest score, first on ties")
	assert.Equal(t, "a2", got[1].IDA)
}

func stitchFixture() ([]model.Record, []model.Record, []model.Candidate) {
	a := rec("s1",
		"customer_id", "s1",
		"email", "jane@example.com",
		"shopify_id", "s1",
		model.FieldFirstName, "JANE",
		model.FieldCity, "AUSTIN",
	)
	unmatched := rec("s2", "customer_id", "s2", "shopify_id", "s2")
	b := rec("n1",
		"internal_id", "n1",
		"netsuite_id", "n1",
		model.FieldFirstName, "",
		model.FieldCity, "AUSTIN",
	)
	cands := []model.Candidate{
		{IDA: "s1", IDB: "n1", Score: 91.5, Tier: model.TierNearExact},
		{IDA: "s1", IDB: "n1", Failure: &model.Failure{Reason: model.FailureScorerPanic}},
	}
	return []model.Record{a, unmatched}, []model.Record{b}, cands
}

func TestStitch(t *testing.T) {
	a, b, cands := stitchFixture()
	tbl := Stitch(a, b, cands, StitchOptions{
		LabelA: "shopify", LabelB: "netsuite",
		IDColumnA: "shopify_id", IDColumnB: "netsuite_id",
	})

	assert.Equal(t, []string{"score", "confidence_level", "shopify_id", "netsuite_id"}, tbl.Header[:4])
	assert.Contains(t, tbl.Header, "customer_id_shopify")
	assert.Contains(t, tbl.Header, "email_shopify")
	assert.Contains(t, tbl.Header, "internal_id_netsuite")
	assert.Contains(t, tbl.Header, "first_name_addy_token")
	assert.Contains(t, tbl.Header, "zip_cleaned_addy_token")
	assert.NotContains(t, tbl.Header, "shopify_id_shopify")
	assert.NotContains(t, tbl.Header, "city_netsuite")
	assert.Len(t, tbl.Header, 4+2+1+len(model.MatchableFields))

	require.Len(t, tbl.Rows, 1, "failed candidates and unmatched records are absent")
	row := tbl.Rows[0]
	assert.Equal(t, []string{"91.50", model.TierNearExact, "s1", "n1"}, row[:4])

	col := func(name string) string {
		for i, h := range tbl.Header {
			if h == name {
				return row[i]
			}
		}
		t.Fatalf("missing column %s", name)
		return ""
	}
	assert.Equal(t, "jane@example.com", col("email_shopify"))
	assert.Equal(t, "n1", col("internal_id_netsuite"))
	assert.Equal(t, "JANE", col("first_name_addy_token"))
	assert.Equal(t, "AUSTIN", col("city_addy_token"))
	assert.Equal(t, "", col("unit_number_addy_token"))
}

func TestStitch_NoNameKeepsNameColumnsAsSource(t *testing.T) {
	a, b, cands := stitchFixture()
	tbl := Stitch(a, b, cands, StitchOptions{LabelA: "shopify", LabelB: "netsuite", IDColumnA: "shopify_id", IDColumnB: "netsuite_id", NoName: true})

	assert.Contains(t, tbl.Header, "first_name_shopify")
	assert.Contains(t, tbl.Header, "first_name_netsuite")
	assert.Contains(t, tbl.Header, "first_name_addy_token")
	assert.Contains(t, tbl.Header, "last_name_addy_token")
	assert.Contains(t, tbl.Header, "city_addy_token")

	var tokens int
	for _, h := range tbl.Header {
		if strings.HasSuffix(h, AddressSuffix) {
			tokens++
		}
	}
	assert.Equal(t, len(model.MatchableFields), tokens)
}

func TestStitch_DefaultLabels(t *testing.T) {
	tbl := Stitch(nil, nil, nil, StitchOptions{})
	assert.Equal(t, []string{"score", "confidence_level", "a_id", "b_id"}, tbl.Header[:4])
	assert.Empty(t, tbl.Rows)
}

func TestTable_WriteCSV(t *testing.T) {
	tbl := &Table{Header: []string{"score", "note"}, Rows: [][]string{{"91.50", "a, b"}}}
	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))
	assert.Equal(t, "score,note\n91.50,\"a, b\"\n", buf.String())
}

func TestBuildReport(t *testing.T) {
	a := []model.Record{rec("a1"), rec("a2"), rec("a2"), rec("a3"), rec("")}
	b := []model.Record{rec("b1"), rec("b2")}
	cands := []model.Candidate{
		{IDA: "a1", IDB: "b1", Score: 95, Tier: model.TierNearExact},
		{IDA: "a1", IDB: "b2", Score: 72, Tier: model.TierMedium},
		{IDA: "a2", IDB: "b2", Score: 81, Tier: model.TierHigh},
		{IDA: "a3", IDB: "b1", Failure: &model.Failure{Reason: model.FailureMissingRecordID}},
	}

	r := BuildReport(a, b, cands, model.DefaultTiers(), "shopify", "amazon")
	assert.Equal(t, 3, r.UniqueA)
	assert.Equal(t, 2, r.UniqueB)
	assert.Equal(t, 2, r.MatchedA)
	assert.Equal(t, 2, r.MatchedB)
	assert.InDelta(t, 66.666, r.PercentA, 0.001)
	assert.Equal(t, 100.0, r.PercentB)
	assert.Equal(t, 1, r.Failures)
	assert.Equal(t, 1, r.TierCount[model.TierHigh])

	text := FormatReport(r)
	assert.Contains(t, text, "Match Report:")
	assert.Contains(t, text, "Total unique Shopify IDs: 3")
	assert.Contains(t, text, "Unique matched Amazon IDs: 2")
	assert.Contains(t, text, "Shopify match percentage: 66.67%")
	assert.Contains(t, text, "Failed pairs: 1")
	assert.Contains(t, text, model.TierLow)
	assert.NotContains(t, text, "unclassified")
}

func TestBuildReport_EmptyInputs(t *testing.T) {
	r := BuildReport(nil, nil, nil, model.DefaultTiers(), "a", "b")
	assert.Equal(t, 0.0, r.PercentA)
	text := FormatReport(r)
	assert.True(t, strings.HasPrefix(text, "Match Report:"))
	assert.Contains(t, text, "A match percentage: 0.00%")
}
