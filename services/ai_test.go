package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/tandemdaily/api/dto"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"themes":["a"]}`, `{"themes":["a"]}`},
		{"bare array", `["a","b"]`, `["a","b"]`},
		{"prose around object", "Here you go:\n{\"themes\":[\"a\"]}\nHope that helps!", `{"themes":["a"]}`},
		{"prose around array", "Sure: [1,2,3]. Done.", `[1,2,3]`},
		{"no json at all", "I cannot help with that", "I cannot help with that"},
		{"unclosed object", "result {oops", "result {oops"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSON(tc.in); got != tc.want {
				t.Fatalf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestAIUnavailableWithoutKey(t *testing.T) {
	svc := &AIService{}

	if svc.Available() {
		t.Fatal("service available without key")
	}

	_, err := svc.SuggestThemes(context.Background(), dto.SuggestThemesRequest{})
	wantAppError(t, err, http.StatusServiceUnavailable)

	_, err = svc.AssessCrypticDifficulty(context.Background(), dto.AssessCrypticDifficultyRequest{
		Clue:   "clue",
		Answer: "ANSWER",
	})
	wantAppError(t, err, http.StatusServiceUnavailable)
}
