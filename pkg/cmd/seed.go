package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/service"
	"github.com/yeisme/notesphere/pkg/internal/types"
)

const seedPassword = "password123"

var seedStudents = []types.RegisterRequest{
	{Name: "Ama Owusu", Email: "ama@example.edu", Institution: "University of Ghana", Level: "Level 200"},
	{Name: "Kwame Boateng", Email: "kwame@example.edu", Institution: "KNUST", Level: "Level 300"},
}

var seedNotes = []types.UploadNoteForm{
	{Title: "Limits and Continuity", Course: "Calculus I", CourseCode: "MATH101", Lecturer: "Dr. Mensah", Institution: "University of Ghana", Tags: "exam, limits"},
	{Title: "Thermodynamics Week 3", Course: "Physics II", CourseCode: "PHYS202", Lecturer: "Prof. Asante", Institution: "KNUST", Tags: "heat,entropy"},
	{Title: "Intro to Data Structures", Course: "Computer Science", CourseCode: "CSCD201", Institution: "University of Ghana", Tags: "lists"},
}

// 最小可用的 PDF.
var seedPDF = []byte("%PDF-1.4\n1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
	"2 0 obj<</Type/Pages/Count 0/Kids[]>>endobj\ntrailer<</Root 1 0 R>>\n%%EOF\n")

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "create demo students and notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := openStorage(ctx)
		if err != nil {
			return err
		}
		defer mgr.Close()

		d := service.Deps{DB: mgr.GetDBClient().DB, Blob: mgr.GetBlobStore()}
		authSvc := service.NewAuthServiceWith(d)
		noteSvc := service.NewNoteServiceWith(d)

		var uploaders []*model.User

		for _, req := range seedStudents {
			req.Password = seedPassword

			u, err := authSvc.CreateAccount(ctx, req, model.RoleStudent)
			if errors.Is(err, apperr.ErrConflict) {
				fmt.Fprintf(cmd.OutOrStdout(), "skip existing %s\n", req.Email)
				continue
			}

			if err != nil {
				return err
			}

			uploaders = append(uploaders, u)
		}

		if len(uploaders) == 0 {
			return nil
		}

		for i, form := range seedNotes {
			u := uploaders[i%len(uploaders)]

			n, err := noteSvc.Upload(ctx, u, service.UploadInput{
				Form:        form,
				FileName:    fmt.Sprintf("seed-%d.pdf", i+1),
				Size:        int64(len(seedPDF)),
				ContentType: "application/pdf",
				Body:        bytes.NewReader(seedPDF),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "note %d %q by %s\n", n.ID, n.Title, u.Email)
		}

		return nil
	},
}

// registerSeedCommands 注册演示数据命令.
func registerSeedCommands() {
	rootCmd.AddCommand(seedCmd)
}
