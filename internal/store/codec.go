package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mindtype-hq/mindtype/internal/assessment"
)

// Compact codec for distribution-heavy response sets. Each response folds
// into a positional record: numeric question id, the two point values, a
// single-character dimension tag and an epoch-seconds timestamp. The codec
// is lossless for question id, points and dimension; timestamps lose
// sub-second precision.

var dimToTag = map[assessment.Dimension]string{
	assessment.DimensionEI: "E",
	assessment.DimensionSN: "S",
	assessment.DimensionTF: "T",
	assessment.DimensionJP: "J",
}

var tagToDim = map[string]assessment.Dimension{
	"E": assessment.DimensionEI,
	"S": assessment.DimensionSN,
	"T": assessment.DimensionTF,
	"J": assessment.DimensionJP,
}

type compactRecord struct {
	Q   int64  `json:"q"`
	A   int    `json:"a"`
	B   int    `json:"b"`
	Dim string `json:"d"`
	TS  int64  `json:"t"`
}

// CompressResponses encodes distribution responses into the compact form.
// It refuses sets it cannot represent losslessly (non-numeric question ids,
// missing point values, unknown dimensions); callers then keep the plain
// encoding instead.
func CompressResponses(responses []assessment.Response) ([]byte, error) {
	records := make([]compactRecord, 0, len(responses))
	for _, r := range responses {
		if r.ResponseType != assessment.ResponseDistribution {
			return nil, fmt.Errorf("response %s is not a distribution response", r.QuestionID)
		}
		qid, err := strconv.ParseInt(r.QuestionID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("question id %q is not numeric", r.QuestionID)
		}
		if r.DistributionA == nil || r.DistributionB == nil {
			return nil, fmt.Errorf("response %s is missing point values", r.QuestionID)
		}
		tag, ok := dimToTag[r.Dimension]
		if !ok {
			return nil, fmt.Errorf("response %s has unknown dimension %q", r.QuestionID, r.Dimension)
		}
		records = append(records, compactRecord{
			Q:   qid,
			A:   *r.DistributionA,
			B:   *r.DistributionB,
			Dim: tag,
			TS:  r.Timestamp.Unix(),
		})
	}
	return json.Marshal(records)
}

// DecompressResponses restores the full response shape. Corrupt input
// yields an empty set, never an error: unreadable storage is the same as
// absent storage.
func DecompressResponses(sessionID string, data []byte) []assessment.Response {
	var records []compactRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}

	out := make([]assessment.Response, 0, len(records))
	for _, rec := range records {
		dim, ok := tagToDim[rec.Dim]
		if !ok {
			continue
		}
		a, b := rec.A, rec.B
		qid := strconv.FormatInt(rec.Q, 10)
		out = append(out, assessment.Response{
			ID:            "sais-" + qid,
			QuestionID:    qid,
			SessionID:     sessionID,
			QuestionType:  assessment.PhaseExtended,
			ResponseType:  assessment.ResponseDistribution,
			Dimension:     dim,
			DistributionA: &a,
			DistributionB: &b,
			Timestamp:     time.Unix(rec.TS, 0).UTC(),
		})
	}
	return out
}
