package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"

	"caldr/internal/core"
)

const (
	redirectPort = "8085"
	redirectURL  = "http://localhost:" + redirectPort + "/callback"
)

var authCmd = &cobra.Command{
	Use:   "auth <source-id>",
	Short: "Authorize an OAuth source",
	Long: `Run the OAuth authorization flow for a source with auth mode "oauth":

  1. Starts a local server to receive the OAuth callback
  2. Opens your browser to sign in
  3. Saves the token next to the source's token_file for future runs

Google's CalDAV gateway is the usual target; the source needs a
credentials_file (OAuth client JSON from the Google Cloud console) and a
token_file path.`,
	Args: cobra.ExactArgs(1),
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	sources, err := readSourcesFromConfig()
	if err != nil {
		return err
	}
	var src core.Source
	found := false
	for _, sc := range sources {
		if sc.ID == args[0] {
			src = sc.toSource()
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("source '%s' not found\n\nAdd it with: caldr sources add %s --auth oauth ...", args[0], args[0])
	}
	if src.Auth != "oauth" {
		return fmt.Errorf("source '%s' uses %q auth; only oauth sources need authorization", src.ID, src.Auth)
	}
	if src.CredentialsFile == "" || src.TokenFile == "" {
		return fmt.Errorf("source '%s' needs credentials_file and token_file configured", src.ID)
	}

	config, err := oauthConfig(src)
	if err != nil {
		return err
	}

	tok, err := getTokenViaLocalServer(config, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}

	if err := saveToken(src.TokenFile, tok); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Println("\n✅ Authorization successful!")
	fmt.Printf("📁 Token saved to %s\n", src.TokenFile)
	fmt.Printf("\nYou can now run 'caldr' to see events from '%s'.\n", src.ID)

	return nil
}

// oauthConfig reads the source's OAuth client credentials. The calendar
// scope covers Google's CalDAV gateway, the common oauth target.
func oauthConfig(src core.Source) (*oauth2.Config, error) {
	b, err := os.ReadFile(src.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	config.RedirectURL = redirectURL
	return config, nil
}

// sourceTokenSource builds the refreshing token source the DAV adapter
// authenticates with, from the token 'caldr auth' cached.
func sourceTokenSource(ctx context.Context, src core.Source) (oauth2.TokenSource, error) {
	config, err := oauthConfig(src)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(src.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("source %s has no saved token: %w\n\nRun 'caldr auth %s' to authorize", src.ID, err, src.ID)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("read token for %s: %w", src.ID, err)
	}
	return config.TokenSource(ctx, tok), nil
}

func getTokenViaLocalServer(config *oauth2.Config, authOpts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server := &http.Server{Addr: ":" + redirectPort}
	mux := http.NewServeMux()

	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errMsg := r.URL.Query().Get("error")
			http.Error(w, "Authorization failed: "+errMsg, http.StatusBadRequest)
			errChan <- fmt.Errorf("authorization failed: %s", errMsg)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `
			<!DOCTYPE html>
			<html>
			<head>
				<title>Authorization Successful</title>
				<style>
					body { font-family: -apple-system, sans-serif; display: flex;
					       justify-content: center; align-items: center; height: 100vh;
					       margin: 0; background: #1a1a1a; color: #fff; }
					.card { background: #2d2d2d; padding: 40px; border-radius: 12px;
					        box-shadow: 0 2px 10px rgba(0,0,0,0.3); text-align: center; }
					h1 { color: #4ade80; margin-bottom: 10px; }
					p { color: #a1a1aa; }
				</style>
			</head>
			<body>
				<div class="card">
					<h1>Authorization Successful</h1>
					<p>You can close this window and return to the terminal.</p>
				</div>
			</body>
			</html>
		`)

		codeChan <- code
	})

	server.Handler = mux

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	authURL := config.AuthCodeURL("state-token", authOpts...)

	fmt.Println("🔐 Opening browser for authorization...")
	fmt.Println()

	if err := openBrowser(authURL); err != nil {
		fmt.Println("⚠️  Couldn't open browser automatically.")
		fmt.Println("   Please open this URL manually:")
		fmt.Println(authURL)
	}

	fmt.Println("⏳ Waiting for authorization...")

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		server.Shutdown(context.Background())
		return nil, err
	case <-time.After(5 * time.Minute):
		server.Shutdown(context.Background())
		return nil, fmt.Errorf("timeout waiting for authorization")
	}

	server.Shutdown(context.Background())

	tok, err := config.Exchange(context.Background(), code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	return tok, nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}

	return cmd.Start()
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
