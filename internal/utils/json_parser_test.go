package utils

import (
	"reflect"
	"testing"
)

func TestParseAIJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]interface{}
		wantErr bool
	}{
		{
			name:  "Pure JSON",
			input: `{"name": "Canal Loft", "price": 142}`,
			want: map[string]interface{}{
				"name":  "Canal Loft",
				"price": float64(142),
			},
			wantErr: false,
		},
		{
			name: "JSON in markdown code block",
			input: "```json\n" +
				`{"airline": "KLM", "stops": 0}` + "\n```",
			want: map[string]interface{}{
				"airline": "KLM",
				"stops":   float64(0),
			},
			wantErr: false,
		},
		{
			name:  "JSON with surrounding text",
			input: `Here are the listings I found: {"status": "success", "count": 5} hope that helps!`,
			want: map[string]interface{}{
				"status": "success",
				"count":  float64(5),
			},
			wantErr: false,
		},
		{
			name:  "JSON with trailing comma",
			input: `{"name": "Bistro", "rating": 4.6,}`,
			want: map[string]interface{}{
				"name":   "Bistro",
				"rating": float64(4.6),
			},
			wantErr: false,
		},
		{
			name:  "JSON with unquoted keys",
			input: `{name: "Museum", price_level: 2}`,
			want: map[string]interface{}{
				"name":        "Museum",
				"price_level": float64(2),
			},
			wantErr: false,
		},
		{
			name: "Code block without language tag",
			input: "```\n" +
				`{"destination": "Kyoto"}` + "\n```",
			want: map[string]interface{}{
				"destination": "Kyoto",
			},
			wantErr: false,
		},
		{
			name:    "Empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "No JSON at all",
			input:   "Sorry, I could not find any listings on that page.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]interface{}
			err := ParseAIJSON(tt.input, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAIJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseAIJSON() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseAIJSONArrayEnvelope(t *testing.T) {
	input := "The extracted listings:\n```json\n" +
		`{"listings": [{"name": "A", "price": 90}, {"name": "B"}]}` + "\n```"

	var got struct {
		Listings []map[string]interface{} `json:"listings"`
	}
	if err := ParseAIJSON(input, &got); err != nil {
		t.Fatalf("ParseAIJSON() error = %v", err)
	}
	if len(got.Listings) != 2 {
		t.Fatalf("Expected 2 listings, got %d", len(got.Listings))
	}
	if got.Listings[0]["name"] != "A" || got.Listings[0]["price"] != float64(90) {
		t.Errorf("First listing wrong: %v", got.Listings[0])
	}
}

func TestTryParseJSONObject(t *testing.T) {
	got, err := TryParseJSONObject(`text before {"ok": true} text after`)
	if err != nil {
		t.Fatalf("TryParseJSONObject() error = %v", err)
	}
	if got["ok"] != true {
		t.Errorf("Expected ok=true, got %v", got)
	}

	if _, err := TryParseJSONObject("not json"); err == nil {
		t.Error("Expected error for non-JSON input")
	}
}

func TestExtractBalancedBraces(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"nested objects", `{"a": {"b": 1}} trailing`, `{"a": {"b": 1}}`},
		{"braces inside strings", `{"note": "use { and } freely"}`, `{"note": "use { and } freely"}`},
		{"unbalanced", `{"a": 1`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractBalancedBraces(tt.input, '{', '}'); got != tt.want {
				t.Errorf("extractBalancedBraces() = %q, want %q", got, tt.want)
			}
		})
	}
}
