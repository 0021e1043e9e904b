package summary_test

import (
	"context"
	"testing"

	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/summary"
)

func TestTemplateGenerate(t *testing.T) {
	note := &model.Note{Title: "Alkenes", Course: "Organic Chemistry", Institution: "KNUST"}

	got, err := summary.Template{}.Generate(context.Background(), note)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	want := "This is a comprehensive summary of Alkenes for Organic Chemistry. " +
		"The document covers key concepts and important topics relevant to KNUST students. " +
		"Main topics include: fundamental principles, practical applications, and exam preparation materials."
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}
