// Command scannersim runs a fake local fingerprint scanner service for
// development without MFS100 hardware.
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophprint/internal/logging"
	"github.com/dmitrijs2005/gophprint/internal/scannersim"
)

func main() {

	addr := flag.String("a", "127.0.0.1:8032", "listen address")
	basePath := flag.String("p", scannersim.DefaultBasePath, "base path")
	certFile := flag.String("tls-cert", "", "TLS certificate file")
	keyFile := flag.String("tls-key", "", "TLS key file")
	encoding := flag.String("enc", string(scannersim.EncodingString), "template encoding (string | bytes | wrapped)")
	envelope := flag.String("envelope", "", "capture envelope (\"\" | capture | data)")
	templateKey := flag.String("key", "template", "template field name")
	template := flag.String("template", "", "base64 template to return (built-in sample when empty)")
	quality := flag.Int("q", 80, "reported quality")
	delay := flag.Duration("delay", time.Second, "simulated finger placement delay")
	errorCode := flag.Int("error-code", 0, "fail every capture with this error code")
	noDevices := flag.Bool("no-devices", false, "report no connected devices")
	logLevel := flag.String("l", "info", "log level")
	flag.Parse()

	logger := logging.New(*logLevel, os.Stderr)

	opts := scannersim.Options{
		BasePath:     *basePath,
		Encoding:     scannersim.Encoding(*encoding),
		Envelope:     scannersim.Envelope(*envelope),
		TemplateKey:  *templateKey,
		Quality:      *quality,
		CaptureDelay: *delay,
	}
	if *template != "" {
		b, err := base64.StdEncoding.DecodeString(*template)
		if err != nil {
			logger.Error(context.Background(), "invalid template", "error", err)
			os.Exit(2)
		}
		opts.Template = b
	}
	if *errorCode != 0 {
		opts.CaptureErrorCode = *errorCode
		opts.CaptureErrorDescription = "Simulated capture failure"
	}
	if *noDevices {
		opts.Devices = []scannersim.Device{}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := scannersim.NewServer(*addr, scannersim.New(opts), logger).WithTLS(*certFile, *keyFile)
	if err := srv.Run(ctx); err != nil {
		logger.Error(ctx, "simulator failed", "error", err)
		os.Exit(1)
	}

}
