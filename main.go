package main

import (
	"fmt"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"bipca/vm"
)

func main() {
	optMemOverseer := getopt.BoolLong("memoverseer", 0, "enable MemOverseer plugin")
	optMemOverseerMO := getopt.BoolLong("mo", 0, "enable MemOverseer plugin")
	optMemoryDump := getopt.BoolLong("memorydump", 0, "enable MemoryDump plugin")
	optMemoryDumpMD := getopt.BoolLong("md", 0, "enable MemoryDump plugin")
	optStepByStep := getopt.BoolLong("stepbystep", 's', "step-mode after each instruction")
	optHelp := getopt.BoolLong("help", 'h', "show usage and exit")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	memOverseerEnabled := *optMemOverseer || *optMemOverseerMO
	memoryDumpEnabled := *optMemoryDump || *optMemoryDumpMD

	files := getopt.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "error: no source files given")
		getopt.Usage()
		os.Exit(1)
	}

	translator := vm.NewTranslator()
	image, err := translator.TranslateFiles(files)
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		os.Exit(1)
	}

	for _, line := range vm.Disassemble(image) {
		fmt.Println(line)
	}

	host := vm.NewPluginHost()
	logger := vm.NewLogger(os.Stderr)

	if memOverseerEnabled {
		if perr := host.Register(&vm.MemOverseer{Log: logger}); perr != nil {
			fmt.Fprintln(os.Stderr, "error: could not register MemOverseer:", perr)
			os.Exit(1)
		}
	}
	if memoryDumpEnabled {
		if perr := host.Register(&vm.MemoryDump{Out: os.Stdout}); perr != nil {
			fmt.Fprintln(os.Stderr, "error: could not register MemoryDump:", perr)
			os.Exit(1)
		}
	}

	machine := vm.NewVM(image, host, os.Stdin, os.Stdout)
	result, rerr := machine.RunProgram(vm.InterpretParams{StepByStep: *optStepByStep})
	if rerr != nil {
		fmt.Fprintln(os.Stderr, "error:", rerr)
		os.Exit(1)
	}

	fmt.Println(result)
	os.Exit(0)
}
