package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestFieldDeserialization(t *testing.T) {
	cases := []struct {
		Json     string
		Expected attribute.KeyValue
	}{
		{
			Json: `{
        "Key": "the key",
        "Value": {
          "Type": "BOOL",
          "Value": true
        }
      }`,
			Expected: attribute.Bool("the key", true),
		},
		{
			Json: `{
        "Key": "the key",
        "Value": {
          "Type": "BOOLSLICE",
          "Value": [ true, false, true ]
        }
      }`,
			Expected: attribute.BoolSlice("the key", []bool{true, false, true}),
		},
		{
			Json: `{
        "Key": "the key",
        "Value": {
          "Type": "INT64",
          "Value": 19875
        }
      }`,
			Expected: attribute.Int64("the key", 19875),
		},
		{
			Json: `{
        "Key": "the key",
        "Value": {
          "Type": "INT64SLICE",
          "Value": [ 19875, 264, 877 ]
        }
      }`,
			Expected: attribute.Int64Slice("the key", []int64{19875, 264, 877}),
		},
		{
			Json: `{
        "Key": "the key",
        "Value": {
          "Type": "FLOAT64",
          "Value": 23.78
        }
      }`,
			Expected: attribute.Float64("the key", 23.78),
		},
		{
			Json: `{
        "Key": "the key",
        "Value": {
          "Type": "FLOAT64SLICE",
          "Value": [ 1987.5, 26.4, 8.77 ]
        }
      }`,
			Expected: attribute.Float64Slice("the key", []float64{1987.5, 26.4, 8.77}),
		},
		{
			Json: `{
        "Key": "the key",
        "Value": {
          "Type": "STRING",
          "Value": "some value"
        }
      }`,
			Expected: attribute.String("the key", "some value"),
		},
		{
			Json: `{
        "Key": "the key",
        "Value": {
          "Type": "STRINGSLICE",
          "Value": [ "some", "other", "value" ]
        }
      }`,
			Expected: attribute.StringSlice("the key", []string{"some", "other", "value"}),
		},
	}

	for _, tc := range cases {
		t.Run("", func(t *testing.T) {
			var f Field
			require.NoError(t, json.Unmarshal([]byte(tc.Json), &f))
			require.Equal(t, tc.Expected, f.KeyValue)
		})
	}
}

func TestFieldDeserializationRejectsBadValues(t *testing.T) {
	cases := []string{
		`{"Key": "k", "Value": {"Type": "BOOL", "Value": "not-a-bool"}}`,
		`{"Key": "k", "Value": {"Type": "BOOL"}}`,
		`{"Key": "k", "Value": {"Type": "INT64", "Value": "19875"}}`,
		`{"Key": "k", "Value": {"Type": "STRING", "Value": 42}}`,
		`{"Key": "k", "Value": {"Type": "STRINGSLICE", "Value": "not-a-slice"}}`,
		`{"Key": "k", "Value": {"Type": "STRINGSLICE", "Value": ["fine", 42]}}`,
		`{"Key": "k", "Value": {"Type": "SOMETHING", "Value": true}}`,
		`{"Key": "k", "Value": {}}`,
	}

	for _, tc := range cases {
		t.Run(tc, func(t *testing.T) {
			var f Field
			require.Error(t, json.Unmarshal([]byte(tc), &f))
		})
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	meta := Metadata{
		String("category", "preferences"),
		Bool("pinned", true),
		Int("weight", 3),
		Float("confidence", 0.82),
	}

	b, err := json.Marshal(meta)
	require.NoError(t, err)

	var read Metadata
	require.NoError(t, json.Unmarshal(b, &read))
	require.Equal(t, meta, read)
}

func TestMetadataAttributes(t *testing.T) {
	meta := Metadata{
		String("category", "preferences"),
		Int("weight", 3),
	}

	attrs := meta.Attributes()
	require.Len(t, attrs, 2)
	require.Equal(t, attribute.String("category", "preferences"), attrs[0])
	require.Equal(t, attribute.Int64("weight", 3), attrs[1])
}
