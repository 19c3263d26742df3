package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Manage the blob storage bucket",
}

var bucketEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the bucket if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Bucket.Ensure(cmd.Context()); err != nil {
			return err
		}
		spec := a.Bucket.Spec()
		fmt.Fprintf(out(cmd), "Bucket %q ready (public=%t, limit=%d bytes)\n", spec.Name, spec.Public, spec.FileSizeLimit)
		return nil
	},
}
