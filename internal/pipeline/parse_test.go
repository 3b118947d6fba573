package pipeline

import "testing"

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: `{"title": "x"}`, want: "x"},
		{name: "fenced", raw: "```json\n{\"title\": \"x\"}\n```", want: "x"},
		{name: "bare fence", raw: "```\n{\"title\": \"x\"}\n```", want: "x"},
		{name: "whitespace", raw: "  \n{\"title\": \"x\"}\n  ", want: "x"},
		{name: "prose", raw: "Sure! Here's your post.", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p payload
			err := decodeJSON(tc.raw, &p)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode %q: %v", tc.raw, err)
			}
			if p.Title != tc.want {
				t.Fatalf("got %q want %q", p.Title, tc.want)
			}
		})
	}
}
