package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Decode(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		expectedKind Kind
	}{
		{name: "empty", body: "", expectedKind: EmptySuccess},
		{name: "whitespace", body: " \n\t", expectedKind: EmptySuccess},
		{name: "valid JSON", body: `["a","b"]`, expectedKind: Success},
		{name: "wrong shape", body: `{"a":1}`, expectedKind: ParseFailure},
		{name: "not JSON", body: "ok", expectedKind: ParseFailure},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			res := Decode[[]string]([]byte(tc.body))
			// then
			assert.Equal(t, tc.expectedKind, res.Kind)
			if tc.expectedKind == ParseFailure {
				assert.Error(t, res.Err)
			} else {
				assert.NoError(t, res.Err)
			}
		})
	}
}

func Test_Result_Tolerant(t *testing.T) {
	// given
	failed := Decode[[]string]([]byte("not json"))
	ok := Decode[[]string]([]byte(`["a"]`))
	// when
	downgraded := failed.Tolerant()
	kept := ok.Tolerant()
	// then
	assert.Equal(t, EmptySuccess, downgraded.Kind)
	assert.NoError(t, downgraded.Err)
	assert.Equal(t, Success, kept.Kind)
	assert.Equal(t, []string{"a"}, kept.Value)
}
