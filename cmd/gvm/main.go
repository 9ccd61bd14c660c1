// Command gvm is the reference host for the register-based bytecode VM:
// it loads a compiled program, runs it to completion, and offers a
// single-step debug REPL and a disassembly dump for inspecting it.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"gvm/internal/bytecode"
	"gvm/internal/vm"
)

func main() {
	file := flag.String("file", "bytecode.bin", "path to the compiled bytecode program")
	debugMode := flag.Bool("debug", false, "enter single-step debug mode")
	dump := flag.Bool("dump", false, "disassemble the program and exit without executing")
	noGC := flag.Bool("nogc", false, "disable the Go garbage collector while executing (tight dispatch loops allocate nothing long-lived)")
	flag.Parse()

	buf, err := os.ReadFile(*file)
	if err != nil {
		fmt.Println("could not read", *file, "-", err)
		os.Exit(1)
	}

	if *dump {
		for _, line := range bytecode.Disassemble(buf) {
			fmt.Println(line)
		}
		return
	}

	stream := bytecode.NewStream(buf)
	machine := vm.New(stream, vm.NewStdoutSink())

	if *debugMode {
		runDebugREPL(machine, buf)
		return
	}

	if *noGC {
		prior := debug.SetGCPercent(-1)
		defer debug.SetGCPercent(prior)
	}

	// A reported runtime error has already been written to the echo sink
	// by the fail-stop protocol; the host's job is just to drive the loop.
	_ = machine.Execute()
}

func runDebugREPL(machine *vm.VM, program []byte) {
	fmt.Print("Commands:\n\tn or next: execute next instruction\n\tr or run: run program\n\tb <addr>: toggle breakpoint at address\n\tprogram: list disassembly\n\theap: list live heap objects\n\n")

	printState(machine)

	reader := bufio.NewReader(os.Stdin)
	waitForInput := true
	breakpoints := make(map[uint32]struct{})
	lastBreak := ^uint32(0)

	for {
		line := ""
		if waitForInput {
			fmt.Print("\n-> ")
			line, _ = reader.ReadString('\n')
			line = strings.ToLower(strings.TrimSpace(line))
		} else {
			pos := machine.Stream().Position()
			if _, ok := breakpoints[pos]; ok && lastBreak != pos {
				fmt.Println("breakpoint")
				printState(machine)
				waitForInput = true
				lastBreak = pos
				continue
			}
		}

		switch {
		case !waitForInput || line == "n" || line == "next":
			lastBreak = ^uint32(0)
			done, err := machine.ExecuteStep()
			if waitForInput {
				printState(machine)
			}
			if err != nil || done {
				return
			}

		case line == "program":
			for _, l := range bytecode.Disassemble(program) {
				fmt.Println(l)
			}

		case line == "heap":
			for i, obj := range machine.Heap().Objects() {
				fmt.Printf("->\t\t%d: marked=%v %v\n", i, obj.Marked(), obj.Payload)
			}

		case line == "r" || line == "run":
			waitForInput = false

		case strings.HasPrefix(line, "b"):
			arg := strings.TrimSpace(strings.TrimPrefix(line, "b"))
			n, err := strconv.ParseUint(arg, 10, 32)
			if err != nil {
				fmt.Println("unknown address:", err)
				continue
			}
			addr := uint32(n)
			if _, ok := breakpoints[addr]; ok {
				delete(breakpoints, addr)
			} else {
				breakpoints[addr] = struct{}{}
			}
		}
	}
}

func printState(machine *vm.VM) {
	fmt.Printf("->\t\tnext instruction> %s\n", bytecode.FormatAddress(machine.Stream().Position()))
	fmt.Println("->\t\tregisters>", machine.Registers().Values())
	fmt.Println("->\t\tstack>", machine.Stack().Values())
}
