package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"adapt-orchestrator/internal/auth"
)

var (
	version = "dev"

	// Global flags
	secret string

	// Stream command flags
	serverURL string
	level     string
	mode      string
	userJSON  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "adapt-cli",
	Short:   "Dev client for the adaptation stream endpoint",
	Version: version,
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Produce a signed init_data blob for a dev secret",
	Long: `Produce a signed init_data blob for a dev secret.

Examples:
  # Sign default dev fields
  adapt-cli sign --secret my-dev-secret

  # Sign a custom user object
  adapt-cli sign --secret my-dev-secret --user '{"id":42,"first_name":"Ada"}'`,
	RunE: runSign,
}

var streamCmd = &cobra.Command{
	Use:   "stream [text]",
	Short: "Open a session and print the adapted-text event stream",
	Long: `Open a WebSocket session against a running server, perform the
handshake with a freshly signed init_data, and print every event until the
stream terminates.

Examples:
  adapt-cli stream --secret my-dev-secret "The mitochondrion is the powerhouse of the cell."
  adapt-cli stream --secret my-dev-secret --level A2 --mode summary "..."`,
	Args: cobra.ExactArgs(1),
	RunE: runStream,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&secret, "secret", "", "bot secret used for signing (required)")

	streamCmd.Flags().StringVar(&serverURL, "url", "ws://localhost:8000/ws/adapt", "stream endpoint")
	streamCmd.Flags().StringVar(&level, "level", "B1", "target CEFR level")
	streamCmd.Flags().StringVar(&mode, "mode", "simplify", "task mode (simplify, summary, glossary)")

	signCmd.Flags().StringVar(&userJSON, "user", `{"id":1,"first_name":"Dev"}`, "user object to embed")

	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(streamCmd)
}

func signedInitData() (string, error) {
	if secret == "" {
		return "", fmt.Errorf("--secret is required")
	}
	return auth.BuildInitData(map[string]string{
		"user":      userJSON,
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
	}, secret), nil
}

func runSign(cmd *cobra.Command, args []string) error {
	initData, err := signedInitData()
	if err != nil {
		return err
	}
	fmt.Println(initData)
	return nil
}

func runStream(cmd *cobra.Command, args []string) error {
	initData, err := signedInitData()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(serverURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", serverURL, err)
	}
	defer conn.Close()

	handshake := map[string]string{
		"init_data":   initData,
		"source_type": "text",
		"payload":     args[0],
		"level":       level,
		"mode":        mode,
	}
	if err := conn.WriteJSON(handshake); err != nil {
		return fmt.Errorf("handshake write failed: %w", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-interrupt
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("connection closed: %w", err)
		}

		var event struct {
			Type string  `json:"type"`
			Data *string `json:"data"`
			Seq  *int    `json:"seq"`
		}
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("unreadable event: %w", err)
		}

		switch event.Type {
		case "token":
			if event.Data != nil {
				fmt.Print(*event.Data)
			}
		case "error":
			msg := ""
			if event.Data != nil {
				msg = *event.Data
			}
			return fmt.Errorf("server error: %s", msg)
		case "end":
			fmt.Println()
			if event.Seq != nil {
				fmt.Printf("(%d tokens)\n", *event.Seq)
			}
			return nil
		}
	}
}
