package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/relay/pkg/realtime/codec"
	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

var (
	encodeJSON      bool
	encodeKeyBase64 string
)

var encodeCmd = &cobra.Command{
	Use:   "encode <payload>",
	Short: "Run a payload through the codec pipeline and show the resulting data and encoding labels",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEncode(args[0])
	},
}

func init() {
	encodeCmd.Flags().BoolVar(&encodeJSON, "json", false, "parse the payload as a JSON structured value first")
	encodeCmd.Flags().StringVar(&encodeKeyBase64, "cipher-key", "", "base64 AES key; when set the payload is encrypted")
	rootCmd.AddCommand(encodeCmd)
}

func runEncode(payload string) error {
	var data interface{} = payload
	if encodeJSON {
		if err := json.Unmarshal([]byte(payload), &data); err != nil {
			return fmt.Errorf("parse payload as json: %w", err)
		}
	}

	opts := proto.ChannelOptions{}
	if encodeKeyBase64 != "" {
		key, err := base64.StdEncoding.DecodeString(encodeKeyBase64)
		if err != nil {
			return fmt.Errorf("decode cipher key: %w", err)
		}
		opts.Encrypted = true
		opts.CipherParams = &proto.CipherParams{
			Algorithm: "aes",
			Mode:      "cbc",
			KeyLength: len(key) * 8,
			Key:       key,
		}
	}

	msg := &proto.Message{Name: "cli", Data: data}
	if err := codec.Default().EncodeMessage(msg, opts, true); err != nil {
		return err
	}

	fmt.Printf("data:     %v\n", msg.Data)
	fmt.Printf("encoding: %s\n", msg.Encoding)

	if err := codec.Default().DecodeMessage(msg, opts); err != nil {
		return err
	}
	fmt.Printf("decoded:  %v\n", msg.Data)
	return nil
}
