package civicgov

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelopeRichResult(t *testing.T) {
	body := []byte(`{
		"Result": {
			"EntityResults": [{"PermitNumber": "P-1"}, {"PermitNumber": "P-2"}],
			"TotalPages": 7,
			"PermitsFound": 642
		}
	}`)

	page, err := DecodeEnvelope(body)
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	require.Equal(t, 7, page.TotalPages)
	require.Equal(t, 642, page.TotalFound)
}

func TestDecodeEnvelopeShapes(t *testing.T) {
	for _, tc := range []struct {
		name string
		body string
	}{
		{"result array", `{"Result": [{"a": 1}]}`},
		{"records", `{"Records": [{"a": 1}]}`},
		{"items", `{"Items": [{"a": 1}]}`},
		{"data", `{"Data": [{"a": 1}]}`},
		{"lowercase results", `{"results": [{"a": 1}]}`},
		{"bare array", `[{"a": 1}]`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			page, err := DecodeEnvelope([]byte(tc.body))
			require.NoError(t, err)
			require.Len(t, page.Records, 1)
		})
	}
}

// the first matching non-null field in the priority order is
// authoritative, even when later shapes are also present
func TestDecodeEnvelopePriority(t *testing.T) {
	body := []byte(`{
		"Result": {"EntityResults": [{"a": 1}], "TotalPages": 1, "PermitsFound": 1},
		"Records": [{"b": 1}, {"b": 2}]
	}`)
	page, err := DecodeEnvelope(body)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	body = []byte(`{"Result": null, "Records": [{"b": 1}], "Items": [{"c": 1}, {"c": 2}]}`)
	page, err = DecodeEnvelope(body)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
}

func TestDecodeEnvelopeEmptyPage(t *testing.T) {
	page, err := DecodeEnvelope([]byte(`{"Records": []}`))
	require.NoError(t, err)
	require.Len(t, page.Records, 0)
}

// the vendor's rich envelope serializes a page with no matches as a null
// EntityResults, which is an empty page, not a malformed body
func TestDecodeEnvelopeEmptyRichPage(t *testing.T) {
	page, err := DecodeEnvelope([]byte(`{"Result": {"EntityResults": null, "TotalPages": 3, "PermitsFound": 250}}`))
	require.NoError(t, err)
	require.Len(t, page.Records, 0)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, 250, page.TotalFound)

	page, err = DecodeEnvelope([]byte(`{"Result": {"EntityResults": null, "TotalPages": 0, "PermitsFound": 0}}`))
	require.NoError(t, err)
	require.Len(t, page.Records, 0)

	page, err = DecodeEnvelope([]byte(`{"Result": {"EntityResults": [], "TotalPages": 1}}`))
	require.NoError(t, err)
	require.Len(t, page.Records, 0)
	require.Equal(t, 1, page.TotalPages)

	page, err = DecodeEnvelope([]byte(`{"Result": {"TotalPages": 3}}`))
	require.NoError(t, err)
	require.Len(t, page.Records, 0)
	require.Equal(t, 3, page.TotalPages)
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	for _, body := range []string{
		``,
		`   `,
		`"just a string"`,
		`{"TotalPages": 3}`,
		`<!DOCTYPE html><html><body>maintenance</body></html>`,
		`{"Result": {}}`,
	} {
		_, err := DecodeEnvelope([]byte(body))
		require.ErrorIs(t, err, ErrMalformedResponse, "body: %q", body)
	}
}
