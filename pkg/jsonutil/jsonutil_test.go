package jsonutil

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

type item struct {
	Field string `json:"field"`
}

func TestDecodeArray(t *testing.T) {
	v, err := Parse([]byte(`[{"field":"value1"},{"field":"value2"}]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got, err := DecodeArray[item](v)
	if err != nil {
		t.Fatalf("DecodeArray: %v", err)
	}
	if len(got) != 2 || got[0].Field != "value1" || got[1].Field != "value2" {
		t.Fatalf("unexpected items %#v", got)
	}
}

func TestDecodeArrayNonArrayIsEmpty(t *testing.T) {
	for _, raw := range []string{`{"field":"x"}`, `"text"`, `42`, `null`} {
		got, err := DecodeArray[item](gjson.Parse(raw))
		if err != nil {
			t.Fatalf("DecodeArray(%s): %v", raw, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("DecodeArray(%s) = %#v, want empty", raw, got)
		}
	}

	// absent field in an empty document
	got, err := DecodeArray[int](gjson.GetBytes(nil, "items"))
	if err != nil || len(got) != 0 {
		t.Fatalf("absent field = %#v, %v", got, err)
	}
}

func TestDecodeArrayAllOrNothing(t *testing.T) {
	v := gjson.Parse(`[1, 2, "three", 4]`)

	got, err := DecodeArray[int](v)
	if got != nil {
		t.Fatalf("expected partial results discarded, got %#v", got)
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.Index != 2 {
		t.Fatalf("DecodeError index = %d", de.Index)
	}
}

func TestDecodeArrayWithCustomDecoder(t *testing.T) {
	v := gjson.Parse(`["a", "bb", "", "ccc"]`)
	decode := func(r gjson.Result) (int, error) {
		if r.Str == "" {
			return 0, fmt.Errorf("empty string")
		}
		return len(r.Str), nil
	}

	_, err := DecodeArrayWith(v, decode)
	if err == nil || !strings.Contains(err.Error(), "element 2") {
		t.Fatalf("expected element 2 failure, got %v", err)
	}

	lens, err := DecodeArrayWith(gjson.Parse(`["a","bb"]`), decode)
	if err != nil || len(lens) != 2 || lens[1] != 2 {
		t.Fatalf("DecodeArrayWith = %#v, %v", lens, err)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	if _, err := Parse([]byte(`{"broken":`)); !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}
}

func TestStringField(t *testing.T) {
	cases := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{`{"data":"Partial information"}`, "Partial information", true},
		{`{"data":{"a":1}}`, `{"a":1}`, true},
		{`{"data":[1,2]}`, `[1,2]`, true},
		{`{"data":null}`, "null", true},
		{`{"data":12}`, "12", true},
		{`{"other":1}`, "", false},
		{`not json`, "", false},
		{``, "", false},
		{`["data"]`, "", false},
	}
	for _, tc := range cases {
		got, ok := StringField([]byte(tc.raw), "data")
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("StringField(%s) = %q, %v", tc.raw, got, ok)
		}
	}

	if got, ok := StringField([]byte(`{"a.b":"dotted"}`), "a.b"); !ok || got != "dotted" {
		t.Fatalf("dotted key = %q, %v", got, ok)
	}
}
