package cmd

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/sarchlab/wavesim/xor"
	"github.com/spf13/cobra"
)

var xorCmd = &cobra.Command{
	Use:   "xor <a> <b>",
	Short: "Combine two strings with XOR and take the result apart again.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runXor(cmd.OutOrStdout(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(xorCmd)
}

func runXor(w io.Writer, a, b string) {
	combined := make([]byte, xor.TextsSize(a, b))
	xor.Texts(a, b, combined)

	back := make([]byte, len(combined))
	xor.BytesText(combined, b, len(back), back)

	if end := bytes.IndexByte(back, 0); end >= 0 {
		back = back[:end]
	}

	fmt.Fprintf(w, "xor: %s\n", hex.EncodeToString(combined))
	fmt.Fprintf(w, "back: %s\n", back)
}
