// Command script decodes hex encoded CBOR from the command line or stdin
// and prints it in diagnostic notation. With -engagement or -method the
// input is also parsed as device engagement or as a connection method.
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"

	cm "github.com/kokukuma/mdoc-issuance/connection_method"
	"github.com/kokukuma/mdoc-issuance/dataitem"
	"github.com/kokukuma/mdoc-issuance/engagement"
)

func main() {
	asEngagement := flag.Bool("engagement", false, "parse input as device engagement")
	asMethod := flag.Bool("method", false, "parse input as a connection method")
	compact := flag.Bool("compact", false, "print diagnostics on one line")
	flag.Parse()

	data, err := readInput(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to read input:", err)
		os.Exit(1)
	}

	item, err := dataitem.Decode(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to decode:", err)
		os.Exit(1)
	}

	opts := []dataitem.DiagnosticOption{dataitem.EmbeddedCBOR}
	if !*compact {
		opts = append(opts, dataitem.PrettyPrint)
	}
	fmt.Println(dataitem.Diagnostics(item, opts...))

	switch {
	case *asEngagement:
		e, err := engagement.Parse(data)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to parse engagement:", err)
			os.Exit(1)
		}
		fmt.Println("version:", e.Version)
		for _, m := range e.ConnectionMethods {
			fmt.Println("connection method:", m)
		}
		spew.Dump(e.OriginInfos)
	case *asMethod:
		m, err := cm.Decode(data)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to parse connection method:", err)
			os.Exit(1)
		}
		if m == nil {
			fmt.Println("connection method version not supported")
			return
		}
		fmt.Println(m)
		spew.Dump(m)
	}
}

func readInput(args []string) ([]byte, error) {
	var s string
	if len(args) > 0 {
		s = strings.Join(args, "")
	} else {
		b, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			return nil, err
		}
		s = string(b)
	}
	s = strings.Join(strings.Fields(s), "")
	return hex.DecodeString(s)
}
