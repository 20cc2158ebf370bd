package main

import (
	"fmt"

	"github.com/spf13/cobra"

	id "classreg/pkg/domain"
)

func newStudentCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Read and update student records",
	}
	cmd.AddCommand(newStudentGetCmd(opts), newStudentUpdateCmd(opts))
	return cmd
}

func newStudentGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a student's name and tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := id.ParseStudentID(args[0])
			if err != nil {
				return err
			}
			record, err := newClient(opts.server, opts.timeout).GetStudent(cmd.Context(), studentID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "id=%s name=%q level=%s\n", record.ID, record.Name, record.Level)
			return err
		},
	}
}

func newStudentUpdateCmd(opts *globalOptions) *cobra.Command {
	var (
		name  string
		score uint32
		token string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Set a student's name and score (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := id.ParseStudentID(args[0])
			if err != nil {
				return err
			}
			c := newClient(opts.server, opts.timeout)
			if err := c.UpdateStudent(cmd.Context(), token, studentID, name, score); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "updated student %s\n", studentID)
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().Uint32Var(&score, "score", 0, "score from 1 to 10")
	cmd.Flags().StringVar(&token, "token", envOr("CLASSREG_TOKEN", ""), "owner bearer token")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}
