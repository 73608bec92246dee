package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/crypto/pbkdf2"

	"github.com/lanikai/hosal"
	"github.com/lanikai/hosal/internal/logging"
	"github.com/lanikai/hosal/internal/remote"

	"github.com/pkg/errors"
)

// Populated via -ldflags="-X ...".
var GitRevisionId string

var log = logging.DefaultLogger.WithTag("hosal-aes")

var (
	flagMode       string
	flagOp         string
	flagKey        string
	flagIV         string
	flagIn         string
	flagPassphrase string
	flagSalt       string
	flagIterations int
	flagKeyBits    int
	flagConfig     string
	flagLockPolicy string
	flagSelfTest   bool
	flagServe      string
	flagBench      time.Duration
	flagLogLevel   string
	flagHelp       bool
	flagVersion    bool
)

func init() {
	flag.StringVarP(&flagMode, "mode", "m", "ecb", "Block-cipher mode")
	flag.StringVarP(&flagOp, "op", "o", "encrypt", "Operation")
	flag.StringVarP(&flagKey, "key", "k", "", "Key, in hex")
	flag.StringVarP(&flagIV, "iv", "", "", "IV, in hex")
	flag.StringVarP(&flagIn, "in", "i", "", "Input, in hex")
	flag.StringVarP(&flagPassphrase, "passphrase", "p", "", "Derive the key from a passphrase")
	flag.StringVarP(&flagSalt, "salt", "", "hosal", "PBKDF2 salt")
	flag.IntVarP(&flagIterations, "iterations", "", 4096, "PBKDF2 iterations")
	flag.IntVarP(&flagKeyBits, "key-bits", "", 128, "Derived key size")
	flag.StringVarP(&flagConfig, "config", "c", "", "JSON configuration file")
	flag.StringVarP(&flagLockPolicy, "lock-policy", "", "", "blocking or nonblocking")
	flag.BoolVarP(&flagSelfTest, "selftest", "t", false, "Run known-answer tests")
	flag.StringVarP(&flagServe, "serve", "", "", "Serve the engine over a websocket")
	flag.DurationVarP(&flagBench, "bench", "", 0, "Measure CTR throughput")
	flag.StringVarP(&flagLogLevel, "log-level", "l", "", "Log level directives")

	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

func main() {
	flag.Usage = help
	flag.Parse()

	if flagHelp {
		help()
		os.Exit(0)
	}
	if flagVersion {
		version()
		os.Exit(0)
	}

	if flagLogLevel != "" {
		if err := logging.SetLevels(flagLogLevel); err != nil {
			log.Fatal(err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	dev, err := hosal.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	passed := true
	switch {
	case flagSelfTest:
		passed = selfTest(ctx, dev, os.Stdout)
	case flagServe != "":
		err = serve(ctx, dev, flagServe)
	case flagBench > 0:
		err = bench(ctx, dev, flagBench, os.Stdout)
	default:
		err = oneShot(ctx, dev)
	}
	if cerr := dev.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatal(err)
	}
	if !passed {
		os.Exit(1)
	}
}

func loadConfig() (hosal.Config, error) {
	cfg := hosal.DefaultConfig()
	if flagConfig != "" {
		var err error
		if cfg, err = hosal.LoadConfig(flagConfig); err != nil {
			return cfg, err
		}
	}
	if flagLockPolicy != "" {
		if err := cfg.LockPolicy.UnmarshalText([]byte(flagLockPolicy)); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func parseOperation(s string) (hosal.Operation, error) {
	for op := hosal.Decrypt; op <= hosal.CMAC; op++ {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, errors.Errorf("unknown operation %q", s)
}

func decodeHexFlag(name, value string) ([]byte, error) {
	b, err := hex.DecodeString(strings.ReplaceAll(value, " ", ""))
	if err != nil {
		return nil, errors.Wrapf(err, "--%s", name)
	}
	return b, nil
}

// deriveKey stretches a passphrase into a key of the given class.
func deriveKey(passphrase, salt string, iterations int, bits hosal.KeyBits) ([]byte, error) {
	if !bits.Valid() {
		return nil, errors.Wrapf(hosal.ErrInvalidKeyLength, "%d bit key", int(bits))
	}
	if iterations < 1 {
		return nil, errors.Errorf("%d PBKDF2 iterations", iterations)
	}
	return pbkdf2.Key([]byte(passphrase), []byte(salt), iterations, bits.Bytes(), sha256.New), nil
}

// buildRequest assembles a Request from the one-shot flags.
func buildRequest() (hosal.Mode, *hosal.Request, error) {
	mode, err := hosal.ParseMode(flagMode)
	if err != nil {
		return 0, nil, err
	}
	op, err := parseOperation(flagOp)
	if err != nil {
		return 0, nil, err
	}

	req := &hosal.Request{Operation: op}
	if flagPassphrase != "" {
		req.KeyBits = hosal.KeyBits(flagKeyBits)
		if req.Key, err = deriveKey(flagPassphrase, flagSalt, flagIterations, req.KeyBits); err != nil {
			return 0, nil, err
		}
	} else {
		if req.Key, err = decodeHexFlag("key", flagKey); err != nil {
			return 0, nil, err
		}
		req.KeyBits = hosal.KeyBits(len(req.Key) * 8)
	}
	if flagIV != "" {
		if req.IV, err = decodeHexFlag("iv", flagIV); err != nil {
			return 0, nil, err
		}
	}
	if req.In, err = decodeHexFlag("in", flagIn); err != nil {
		return 0, nil, err
	}

	req.Length = len(req.In)
	if mode == hosal.MAC {
		req.Out = make([]byte, hosal.BlockSize)
	} else {
		req.Out = make([]byte, req.Length)
	}
	return mode, req, nil
}

func oneShot(ctx context.Context, dev *hosal.Device) error {
	mode, req, err := buildRequest()
	if err != nil {
		return err
	}
	if err := dev.Do(ctx, mode, req); err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(req.Out))
	return nil
}

func serve(ctx context.Context, dev *hosal.Device, addr string) error {
	router := http.NewServeMux()
	router.Handle("/ws", remote.NewHandler(dev))
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	log.Info("serving AES engine at ws://%s/ws", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
