package kv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/kvbind/lib/binding"
	"github.com/spf13/cobra"
)

var (
	readCmd = &cobra.Command{
		Use:   "read [key]",
		Short: "Reads the stored value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			record, err := recordStore.Read(key)
			if binding.StatusOf(err) == binding.StatusNotFound {
				fmt.Printf("key=%s, status=%s\n", key, binding.StatusNotFound)
				return nil
			}
			if err != nil {
				return err
			}
			value, _ := record.Get(key)
			fmt.Printf("key=%s, status=%s, length=%d, value=%s\n", key, binding.StatusOK, len(value), value)
			return nil
		},
	}
	insertCmd = &cobra.Command{
		Use:   "insert [key] [field=value]...",
		Short: "Inserts a record, the first field is stored scaled to the field count",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := parseFields(args[1:])
			if err != nil {
				return err
			}
			if err := recordStore.Insert(args[0], record); err != nil {
				return err
			}
			fmt.Printf("key=%s, status=%s\n", args[0], binding.StatusOK)
			return nil
		},
	}
	updateCmd = &cobra.Command{
		Use:   "update [key] [field=value]...",
		Short: "Updates a record, the first field is stored scaled to the field count",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := parseFields(args[1:])
			if err != nil {
				return err
			}
			if err := recordStore.Update(args[0], record); err != nil {
				return err
			}
			fmt.Printf("key=%s, status=%s\n", args[0], binding.StatusOK)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [key]",
		Short: "Deletes a record (not supported by the binding)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := recordStore.Delete(args[0])
			fmt.Printf("key=%s, status=%s\n", args[0], binding.StatusOf(err))
			return nil
		},
	}
	scanCmd = &cobra.Command{
		Use:   "scan [startKey] [count]",
		Short: "Scans records (not supported by the binding)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("count must be a number: %w", err)
			}
			_, err = recordStore.Scan(args[0], count, nil)
			fmt.Printf("startKey=%s, status=%s\n", args[0], binding.StatusOf(err))
			return nil
		},
	}
)

// parseFields converts field=value arguments into a record, keeping the argument order
func parseFields(args []string) (*binding.Record, error) {
	record := binding.NewRecord()
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid field %q (expected field=value)", arg)
		}
		record.Put(name, []byte(value))
	}
	return record, nil
}
