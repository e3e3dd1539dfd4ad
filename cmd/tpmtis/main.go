package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tinyrange/tpmtis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tpmtis: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Configuration file (yaml)")
	force := flag.Bool("force", false, "Skip enumeration and probe the static device")
	itpm := flag.Bool("itpm", false, "Force the iTPM workaround")
	interrupts := flag.Bool("interrupts", true, "Allow interrupt-driven operation")
	hid := flag.String("hid", "", "Additional device identity to probe")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Probe for memory-mapped TPM TIS devices and report what is found.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --force\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --hid VEN0001 --debug\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 0 {
		flag.Usage()
		return fmt.Errorf("unexpected arguments: %v", flag.Args())
	}

	cfg, err := tpmtis.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	// Command-line flags override the file where given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "force":
			cfg.Force = *force
		case "itpm":
			cfg.ITPM = *itpm
		case "interrupts":
			cfg.Interrupts = interrupts
		case "hid":
			cfg.HID = *hid
		case "debug":
			cfg.Debug = *debug
		}
	})

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	driver, err := tpmtis.New(cfg, &reportProtocol{log: log}, tpmtis.WithLogger(log))
	if err != nil {
		return err
	}

	if err := driver.Start(); err != nil {
		return fmt.Errorf("start discovery: %w", err)
	}
	defer func() {
		if err := driver.Stop(); err != nil {
			log.Warn("teardown", "err", err)
		}
	}()

	chips := driver.Chips()
	if len(chips) == 0 {
		fmt.Println("no TPM TIS device found")
		return nil
	}
	for _, chip := range chips {
		fmt.Printf("%s: %s", chip.Key(), chip.Resource())
		if chip.ACPIHandle() != "" {
			fmt.Printf(" acpi=%s", chip.ACPIHandle())
		}
		if chip.Quirks().ITPM {
			fmt.Printf(" itpm")
		}
		fmt.Println()
	}
	return nil
}

// TPM_DID_VID of locality 0, the identification register every TIS chip
// implements.
const didVidOffset = 0xf00

// reportProtocol is a diagnostic protocol layer: it reads the chip's
// identification register at attach time and answers no commands.
type reportProtocol struct {
	log *slog.Logger
}

func (p *reportProtocol) Status(c *tpmtis.Chip) uint8 { return 0 }

func (p *reportProtocol) Recv(c *tpmtis.Chip, buf []byte) (int, error) {
	return 0, fmt.Errorf("report protocol answers no commands")
}

func (p *reportProtocol) Send(c *tpmtis.Chip, buf []byte) (int, error) {
	return 0, fmt.Errorf("report protocol accepts no commands")
}

func (p *reportProtocol) Cancel(c *tpmtis.Chip)             {}
func (p *reportProtocol) UpdateTimeouts(c *tpmtis.Chip) error { return nil }

func (p *reportProtocol) ReqCanceled(c *tpmtis.Chip, status uint8) bool {
	return false
}

func (p *reportProtocol) Initialize(c *tpmtis.Chip, irq uint32, interrupts, itpm bool) error {
	var raw [4]byte
	c.ReadBytes(didVidOffset, raw[:], tpmtis.Width32)
	didVid := binary.LittleEndian.Uint32(raw[:])

	p.log.Info("probed chip",
		"device", c.Key(),
		"vendor", fmt.Sprintf("%#04x", didVid&0xffff),
		"id", fmt.Sprintf("%#04x", didVid>>16),
		"irq", irq,
		"interrupts", interrupts,
		"itpm", itpm)
	return nil
}

func (p *reportProtocol) Remove(c *tpmtis.Chip) {
	p.log.Debug("released chip", "device", c.Key())
}
