package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("BOARDHOLE_URL", "http://localhost:8080")
		out     = envOr("BOARDHOLE_OUT", "text")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "boardhole",
		Short: "CLI de operación del servicio de emails (outbox y verificación)",
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env BOARDHOLE_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{BaseURL: baseURL, OutFormat: out, HTTP: &http.Client{Timeout: timeout}}

	// grupo outbox
	outboxCmd := &cobra.Command{
		Use:   "outbox",
		Short: "Operación del outbox de emails",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Conteos por estado del outbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/api/admin/outbox/stats", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("stats fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Disparar una pasada de reintentos ahora",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/api/admin/outbox/sweep", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("sweep fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Eliminar registros terminales fuera de la ventana de retención",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/api/admin/outbox/cleanup", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("cleanup fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	outboxCmd.AddCommand(statsCmd, sweepCmd, cleanupCmd)

	// grupo verify
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Operación de verificación de email",
	}

	var resendUserID string
	resendCmd := &cobra.Command{
		Use:   "resend",
		Short: "Reenviar el email de verificación a un usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			if resendUserID == "" {
				return fmt.Errorf("--user-id es requerido")
			}
			b, _ := json.Marshal(map[string]string{"user_id": resendUserID})
			status, body, err := cl.do("POST", "/api/auth/resend-verification", b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("resend fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	resendCmd.Flags().StringVar(&resendUserID, "user-id", "", "UUID del usuario")

	verifyCmd.AddCommand(resendCmd)

	root.AddCommand(outboxCmd, verifyCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
