package civicgov

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var ErrMalformedResponse = fmt.Errorf("response body does not match any known envelope shape")

// Page is one decoded page of search results. Records stay opaque here;
// field normalization happens downstream.
type Page struct {
	Records []json.RawMessage
	// 0 when the envelope carried no page metadata
	TotalPages int
	// total matching records reported by the vendor, 0 when absent
	TotalFound int
}

// richResult is the most structured envelope the vendor produces:
// {"Result": {"EntityResults": [...], "TotalPages": n, "PermitsFound": n}}
// EntityResults stays raw because the vendor serializes a no-results page
// as a literal null, not an empty array.
type richResult struct {
	EntityResults json.RawMessage `json:"EntityResults"`
	TotalPages    int             `json:"TotalPages"`
	PermitsFound  int             `json:"PermitsFound"`
}

// DecodeEnvelope picks records out of whichever response shape this
// deployment happens to serve. Shapes are tried in a fixed priority order
// and the first matching non-null field wins.
func DecodeEnvelope(body []byte) (Page, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return Page{}, ErrMalformedResponse
	}

	// a bare array of records
	if trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return Page{}, ErrMalformedResponse
		}
		return Page{Records: records}, nil
	}
	if trimmed[0] != '{' {
		return Page{}, ErrMalformedResponse
	}

	var envelope struct {
		Result       json.RawMessage `json:"Result"`
		Records      []json.RawMessage `json:"Records"`
		Items        []json.RawMessage `json:"Items"`
		Data         []json.RawMessage `json:"Data"`
		LowerResults []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return Page{}, ErrMalformedResponse
	}

	if len(envelope.Result) > 0 && !bytes.Equal(envelope.Result, []byte("null")) {
		resultBody := bytes.TrimLeft(envelope.Result, " \t\r\n")
		if len(resultBody) > 0 && resultBody[0] == '{' {
			var rich richResult
			if err := json.Unmarshal(resultBody, &rich); err != nil {
				return Page{}, ErrMalformedResponse
			}
			entities := bytes.TrimSpace(rich.EntityResults)
			switch {
			case bytes.Equal(entities, []byte("null")):
				// the vendor's no-results page: records are null, the page
				// metadata still counts
				return Page{TotalPages: rich.TotalPages, TotalFound: rich.PermitsFound}, nil
			case len(entities) > 0:
				var records []json.RawMessage
				if err := json.Unmarshal(entities, &records); err != nil {
					return Page{}, ErrMalformedResponse
				}
				return Page{
					Records:    records,
					TotalPages: rich.TotalPages,
					TotalFound: rich.PermitsFound,
				}, nil
			case rich.TotalPages > 0 || rich.PermitsFound > 0:
				// page metadata with the records key missing entirely
				return Page{TotalPages: rich.TotalPages, TotalFound: rich.PermitsFound}, nil
			}
		}
		if len(resultBody) > 0 && resultBody[0] == '[' {
			var records []json.RawMessage
			if err := json.Unmarshal(resultBody, &records); err != nil {
				return Page{}, ErrMalformedResponse
			}
			return Page{Records: records}, nil
		}
	}

	switch {
	case envelope.Records != nil:
		return Page{Records: envelope.Records}, nil
	case envelope.Items != nil:
		return Page{Records: envelope.Items}, nil
	case envelope.Data != nil:
		return Page{Records: envelope.Data}, nil
	case envelope.LowerResults != nil:
		return Page{Records: envelope.LowerResults}, nil
	}

	return Page{}, ErrMalformedResponse
}
