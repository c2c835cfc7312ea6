package resolve

import "github.com/payasparab/addressmatcher/internal/model"

// BestPerA keeps, for each IDA, the scored candidate with the highest
// score. Ties go to the earliest candidate. Failed candidates are dropped.
// Output order follows the first appearance of each IDA.
func BestPerA(cands []model.Candidate) []model.Candidate {
	best := make(map[string]int)
	var out []model.Candidate
	for _, c := range cands {
		if c.Failed() {
			continue
		}
		i, ok := best[c.IDA]
		if !ok {
			best[c.IDA] = len(out)
			out = append(out, c)
			continue
		}
		if c.Score > out[i].Score {
			out[i] = c
		}
	}
	return out
}
