package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindtype-hq/mindtype/internal/assessment"
)

func saisResponse(qid string, dim assessment.Dimension, a, b int, ts time.Time) assessment.Response {
	return assessment.Response{
		ID:            "r-" + qid,
		QuestionID:    qid,
		SessionID:     "sess-1",
		QuestionType:  assessment.PhaseExtended,
		ResponseType:  assessment.ResponseDistribution,
		Dimension:     dim,
		DistributionA: &a,
		DistributionB: &b,
		Timestamp:     ts,
	}
}

func TestCompressRoundTrip(t *testing.T) {
	ts := time.Date(2026, 5, 2, 15, 4, 5, 123456789, time.UTC)
	in := []assessment.Response{
		saisResponse("101", assessment.DimensionEI, 4, 1, ts),
		saisResponse("102", assessment.DimensionSN, 0, 5, ts.Add(time.Minute)),
		saisResponse("103", assessment.DimensionTF, 3, 2, ts.Add(2*time.Minute)),
		saisResponse("104", assessment.DimensionJP, 5, 0, ts.Add(3*time.Minute)),
	}

	compact, err := CompressResponses(in)
	require.NoError(t, err)

	out := DecompressResponses("sess-1", compact)
	require.Len(t, out, len(in))
	for i, r := range out {
		assert.Equal(t, in[i].QuestionID, r.QuestionID)
		assert.Equal(t, *in[i].DistributionA, *r.DistributionA)
		assert.Equal(t, *in[i].DistributionB, *r.DistributionB)
		assert.Equal(t, in[i].Dimension, r.Dimension)
		assert.Equal(t, "sess-1", r.SessionID)
		// Second precision is kept; sub-second precision is not.
		assert.Equal(t, in[i].Timestamp.Truncate(time.Second), r.Timestamp)
	}
}

func TestCompressRejectsNonNumericQuestionIDs(t *testing.T) {
	in := []assessment.Response{saisResponse("q-one", assessment.DimensionEI, 4, 1, time.Now())}

	_, err := CompressResponses(in)
	assert.Error(t, err)
}

func TestCompressRejectsBinaryResponses(t *testing.T) {
	in := []assessment.Response{{
		QuestionID:     "101",
		ResponseType:   assessment.ResponseBinary,
		Dimension:      assessment.DimensionEI,
		SelectedOption: "A",
	}}

	_, err := CompressResponses(in)
	assert.Error(t, err)
}

func TestDecompressCorruptInputReturnsEmpty(t *testing.T) {
	for _, corrupt := range [][]byte{
		nil,
		[]byte(""),
		[]byte("{not json"),
		[]byte(`{"q":1}`), // object where an array belongs
	} {
		assert.Empty(t, DecompressResponses("sess-1", corrupt))
	}
}

func TestDecompressSkipsUnknownDimensionTags(t *testing.T) {
	out := DecompressResponses("sess-1", []byte(`[{"q":1,"a":4,"b":1,"d":"Z","t":0}]`))
	assert.Empty(t, out)
}
