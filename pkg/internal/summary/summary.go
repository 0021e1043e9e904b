// Package summary 生成笔记摘要.
package summary

import (
	"context"
	"fmt"

	"github.com/yeisme/notesphere/pkg/internal/model"
)

// Generator 摘要生成器.
type Generator interface {
	Generate(ctx context.Context, note *model.Note) (string, error)
}

// Template 基于笔记元数据的模板摘要.
type Template struct{}

const templateText = "This is a comprehensive summary of %s for %s. " +
	"The document covers key concepts and important topics relevant to %s students. " +
	"Main topics include: fundamental principles, practical applications, and exam preparation materials."

// Generate 实现 Generator.
func (Template) Generate(_ context.Context, note *model.Note) (string, error) {
	return fmt.Sprintf(templateText, note.Title, note.Course, note.Institution), nil
}
