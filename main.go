package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"slip_go/pkg/compiler"
)

var (
	evalExpr   = flag.String("e", "", "Compile expression from command line")
	outputFile = flag.String("o", "", "Output file (default: stdout)")
)

const historyFile = ".slip_history"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Slip - single-pass compiler to stack-machine code\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [file.slip]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -e '(+ 1 2)'             # Compile expression to stdout\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s program.slip             # Compile file to stdout\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s program.slip -o out.sasm # Compile file to out.sasm\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  echo '(add1 41)' | %s       # Compile stdin\n", os.Args[0])
	}
	flag.Parse()

	var src []byte
	switch {
	case *evalExpr != "":
		src = []byte(*evalExpr)
	case flag.NArg() > 0:
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			os.Exit(1)
		}
		src = data
	default:
		if stdinIsTerminal() {
			runREPL()
			return
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
		src = data
	}

	code, err := compiler.New().CompileProgram(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compile error: %v\n", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(code), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Print(code)
	}
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func runREPL() {
	fmt.Println("Slip REPL - type an expression to see its instruction listing")
	fmt.Println("Type :quit to exit")
	fmt.Println()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := historyPath()
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	comp := compiler.New()
	for {
		line, err := ln.Prompt("slip> ")
		if err != nil {
			// io.EOF on Ctrl+D, liner.ErrPromptAborted on Ctrl+C
			fmt.Println()
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ":quit" {
			return
		}
		code, err := comp.CompileProgram([]byte(line))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Compile error: %v\n", err)
			continue
		}
		fmt.Print(code)
		ln.AppendHistory(line)
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}
