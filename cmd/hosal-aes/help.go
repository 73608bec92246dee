package main

import (
	"fmt"

	"github.com/fatih/color"
)

const helpString = `Drive the AES engine from the command line

Usage: hosal-aes [OPTION]...

Operation:
  -m, --mode=MODE        Block-cipher mode: ecb, cbc, ctr or cmac (default: ecb)
  -o, --op=OP            encrypt, decrypt, cmac-load-key or cmac (default: encrypt)
  -k, --key=HEX          128, 192 or 256-bit key
      --iv=HEX           IV, initial counter block or MAC seed
  -i, --in=HEX           Input data

Key derivation:
  -p, --passphrase=STR   Derive the key from a passphrase (PBKDF2-SHA256)
      --salt=STR         PBKDF2 salt (default: hosal)
      --iterations=NUM   PBKDF2 iterations (default: 4096)
      --key-bits=NUM     Derived key size (default: 128)

Engine:
  -c, --config=FILE      JSON configuration file
      --lock-policy=STR  blocking or nonblocking, overrides the config file

Other modes:
  -t, --selftest         Run the built-in known-answer tests and exit
      --serve=ADDR       Serve the engine over a websocket at ADDR
      --bench=DURATION   Measure CTR throughput (e.g. 3s)

Miscellaneous:
  -l, --log-level=LIST   Log level directives, e.g. info,engine=trace
  -h, --help             Prints this help message and exits
  -v, --version          Prints version information and exits`

func help() {
	y := color.New(color.FgYellow)
	b := color.New(color.FgCyan)

	//  _                      _
	// | |__    ___   ___   __ _ | |
	// | '_ \  / _ \ / __| / _` || |
	// | | | || (_) |\__ \| (_| || |
	// |_| |_| \___/ |___/ \__,_||_|

	y.Printf(" _     ")
	b.Printf("      ")
	y.Printf("      ")
	b.Printf("      ")
	y.Println(" _ ")

	y.Printf("| |__  ")
	b.Printf("  ___ ")
	y.Printf("  ___ ")
	b.Printf("  __ _ ")
	y.Println("| |")

	y.Printf("| '_ \\ ")
	b.Printf(" / _ \\")
	y.Printf(" / __|")
	b.Printf(" / _` |")
	y.Println("| |")

	y.Printf("| | | |")
	b.Printf("| (_) |")
	y.Printf("\\__ \\")
	b.Printf("| (_| |")
	y.Println("| |")

	y.Printf("|_| |_|")
	b.Printf(" \\___/ ")
	y.Printf("|___/")
	b.Printf(" \\__,_|")
	y.Println("|_|")

	fmt.Println(helpString)
}

// version displays information and exits successfully (GNU convention)
func version() {
	fmt.Println("hosal-aes", GitRevisionId)
}
