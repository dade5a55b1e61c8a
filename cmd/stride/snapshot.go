package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stride/internal/snapshot"
	"stride/internal/vm"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture, inspect, and restore heap snapshots",
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Capture a sample context into a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotSave,
}

var snapshotInfoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Summarize a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotInfo,
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore a snapshot into a fresh context and dump it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotRestore,
}

func init() {
	snapshotInfoCmd.Flags().Bool("objects", false, "list every recorded object and global")
	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotInfoCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)
}

func runSnapshotSave(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	c := vm.NewContext(opts)
	defer c.Close()
	if err := buildSampleWorld(c); err != nil {
		return err
	}

	snap := snapshot.Capture(c)
	if err := snapshot.Write(args[0], snap); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %s\n", args[0], snap.Summary())
	return nil
}

func runSnapshotInfo(cmd *cobra.Command, args []string) error {
	objects, err := cmd.Flags().GetBool("objects")
	if err != nil {
		return fmt.Errorf("failed to get objects flag: %w", err)
	}

	snap, err := snapshot.Read(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, snap.Summary())
	if objects {
		for _, img := range snap.Objects {
			fmt.Fprintf(out, "  %s#%d strong=%d weak=%d\n", vm.ObjectKind(img.Kind), img.ID, img.Strong, img.Weak)
		}
		for _, b := range snap.Globals {
			fmt.Fprintf(out, "  global %s (%s)\n", b.Name, b.Val.Kind)
		}
	}
	return nil
}

func runSnapshotRestore(cmd *cobra.Command, args []string) error {
	snap, err := snapshot.Read(args[0])
	if err != nil {
		return err
	}
	c, err := snapshot.Restore(snap)
	if err != nil {
		return err
	}
	defer c.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "restored %s\n", snap.Summary())
	fmt.Fprint(out, c.DumpHeap())
	return nil
}
