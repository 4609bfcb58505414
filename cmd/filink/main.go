// Command filink exchanges files with an Epson PX-8 (Geneva) peer over an
// RS-232C serial link, speaking the UTY-ROM FILINK protocol.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/epsonian/filink/pkg/filink"
	"github.com/epsonian/filink/pkg/sio"
)

func init() {
	// change glog default destination to stderr
	if glog.V(0) { // should always be true, mention glog so it defines its flags before we change them
		if err := flag.CommandLine.Set("logtostderr", "true"); nil != err {
			log.Printf("Failed changing glog default destination, err: %s", err)
		}
	}
}

var (
	portPath  string
	baud      int
	dataBits  int
	parity    string
	stopBits  int
	byteDelay int
	debug     bool
)

func init() {
	flag.StringVar(&portPath, "port", "", "`path` of the serial device, e.g. /dev/ttyUSB0")
	flag.IntVar(&baud, "baud", 9600, "baud `rate`")
	flag.IntVar(&dataBits, "data-bits", 8, "data bits per word (5-8)")
	flag.StringVar(&parity, "parity", "none", "parity: none, odd or even")
	flag.IntVar(&stopBits, "stop-bits", 1, "stop bits (1 or 2)")
	flag.IntVar(&byteDelay, "byte-delay", 0, "`ms` to pause between payload bytes, for slow peers")
	flag.BoolVar(&debug, "debug", false, "trace protocol states and wire bytes to stderr")
}

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
This is filink, a FILINK protocol endpoint, all options:

`)
		flag.PrintDefaults()
		fmt.Fprintf(flag.CommandLine.Output(), `
Simple usage:

 %[1]s -port <device> [ options ] send <file> ...
 %[1]s -port <device> [ options ] receive [ -output-dir <dir> ]

`, os.Args[0])
	}
	flag.Parse()

	if debug {
		if err := flag.CommandLine.Set("v", "2"); nil != err {
			log.Printf("Failed raising glog verbosity, err: %s", err)
		}
	}

	if flag.NArg() < 1 || len(portPath) <= 0 {
		flag.Usage()
		os.Exit(1)
	}

	port, err := sio.Open(sio.Config{
		Device:   portPath,
		Baud:     baud,
		DataBits: dataBits,
		Parity:   parity,
		StopBits: stopBits,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening serial port [%s] - %+v\n", portPath, err)
		os.Exit(2)
	}
	defer port.Close()

	delay := time.Duration(byteDelay) * time.Millisecond

	switch cmd := flag.Args()[0]; cmd {
	case "send":
		files := flag.Args()[1:]
		sender := filink.NewSender(port, filink.WithByteDelay(delay))
		if err := sender.Send(files...); err != nil {
			fmt.Fprintf(os.Stderr, "Send failed - %+v\n", err)
			os.Exit(3)
		}

	case "receive":
		fs := flag.NewFlagSet("receive", flag.ContinueOnError)
		outputDir := fs.String("output-dir", ".", "`dir` to write received files into")
		if err := fs.Parse(flag.Args()[1:]); err != nil {
			os.Exit(1)
		}
		receiver := filink.NewReceiver(port)
		if err := receiver.Receive(*outputDir); err != nil {
			fmt.Fprintf(os.Stderr, "Receive failed - %+v\n", err)
			os.Exit(3)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command [%s]\n", cmd)
		flag.Usage()
		os.Exit(1)
	}
}
