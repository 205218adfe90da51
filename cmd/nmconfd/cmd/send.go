package cmd

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/spf13/cobra"

	"github.com/mejarrett/netmap/internal/config"
)

var (
	sendFile    string
	sendNetwork string
	sendAddress string
)

func init() {
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send a configuration request and print the reply",
		Long: `Send the contents of a file (or stdin) to a running daemon and print
the reply. The daemon answers backpressure by dropping the exchange, so
the whole request is retried with backoff, never partial writes.`,
		RunE: runSend,
	}

	sendCmd.Flags().StringVar(&sendFile, "file", "", "request file (defaults to stdin)")
	sendCmd.Flags().StringVar(&sendNetwork, "network", "", "override listen network from config")
	sendCmd.Flags().StringVar(&sendAddress, "address", "", "override listen address from config")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	network, address := sendNetwork, sendAddress
	if network == "" || address == "" {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}
		if network == "" {
			network = cfg.Listen.Network
		}
		if address == "" {
			address = cfg.Listen.Address
		}
	}

	var source io.Reader = os.Stdin
	if sendFile != "" {
		f, err := os.Open(sendFile)
		if err != nil {
			return err
		}
		defer f.Close()
		source = f
	}
	request, err := io.ReadAll(source)
	if err != nil {
		return err
	}

	reply, err := retry.DoWithData(
		func() ([]byte, error) {
			return sendRequest(network, address, request)
		},
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
	)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(reply)
	return err
}

type closeWriter interface {
	CloseWrite() error
}

func sendRequest(network, address string, request []byte) ([]byte, error) {
	conn, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := conn.Write(request); err != nil {
		return nil, err
	}
	cw, ok := conn.(closeWriter)
	if !ok {
		return nil, fmt.Errorf("connection does not support half-close")
	}
	if err := cw.CloseWrite(); err != nil {
		return nil, err
	}

	return io.ReadAll(conn)
}
