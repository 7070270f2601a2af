package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	apiKey    string
	rootCmd   = &cobra.Command{
		Use:   "yt-stream",
		Short: "yt-stream CLI - list formats and download media through the server",
		Long:  `A command-line interface for the yt-stream service: list available formats, download a selected format to a file, and inspect server state.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for the download endpoint")

	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(logsCmd)
}

var formatsCmd = &cobra.Command{
	Use:   "formats [url]",
	Short: "List available formats for a video URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		endpoint := serverURL + "/api/formats?url=" + url.QueryEscape(args[0])

		resp, err := http.Get(endpoint)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result struct {
			Source  string `json:"source"`
			Formats []struct {
				FormatID     string `json:"formatId"`
				Container    string `json:"container"`
				QualityLabel string `json:"qualityLabel"`
				Bitrate      int    `json:"bitrate"`
				HasVideo     bool   `json:"hasVideo"`
				HasAudio     bool   `json:"hasAudio"`
			} `json:"formats"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Resolved via %s backend\n\n", result.Source)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FORMAT\tCONTAINER\tQUALITY\tBITRATE\tTRACKS")
		for _, f := range result.Formats {
			tracks := "audio"
			if f.HasVideo && f.HasAudio {
				tracks = "audio+video"
			} else if f.HasVideo {
				tracks = "video"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				f.FormatID, f.Container, f.QualityLabel, f.Bitrate, tracks)
		}
		w.Flush()
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download a video or audio stream to a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mediaType, _ := cmd.Flags().GetString("type")
		itag, _ := cmd.Flags().GetString("itag")
		output, _ := cmd.Flags().GetString("output")

		params := url.Values{}
		params.Set("url", args[0])
		params.Set("type", mediaType)
		params.Set("requestId", uuid.New().String())
		if itag != "" {
			params.Set("itag", itag)
		}
		if apiKey != "" {
			params.Set("api_key", apiKey)
		}

		resp, err := http.Get(serverURL + "/api/download?" + params.Encode())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		if output == "" {
			output = filenameFromHeader(resp.Header.Get("Content-Disposition"))
		}

		f, err := os.Create(output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		n, err := io.Copy(f, resp.Body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: stream interrupted after %d bytes: %v\n", n, err)
			os.Exit(1)
		}

		fmt.Printf("Saved %s (%d bytes)\n", output, n)
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress [requestId]",
	Short: "Follow progress events for a running download",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(serverURL + "/api/progress?requestId=" + url.QueryEscape(args[0]))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		scanner := bufio.NewScanner(resp.Body)
		event := ""
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data := strings.TrimPrefix(line, "data: ")
				switch event {
				case "done":
					fmt.Println("done")
					return
				case "error":
					var payload struct {
						Message string `json:"message"`
					}
					json.Unmarshal([]byte(data), &payload)
					fmt.Fprintf(os.Stderr, "Error: %s\n", payload.Message)
					os.Exit(1)
				default:
					var payload struct {
						Downloaded int64 `json:"downloaded"`
						Total      int64 `json:"total"`
						Percent    int   `json:"percent"`
					}
					if json.Unmarshal([]byte(data), &payload) == nil {
						if payload.Total > 0 {
							fmt.Printf("\r%d / %d bytes (%d%%)", payload.Downloaded, payload.Total, payload.Percent)
						} else {
							fmt.Printf("\r%d bytes", payload.Downloaded)
						}
					}
				}
			case line == "":
				event = ""
			}
		}
		fmt.Println()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent download attempts",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		resp, err := http.Get(fmt.Sprintf("%s/api/history?limit=%d", serverURL, limit))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result struct {
			Records []struct {
				ID        string `json:"id"`
				URL       string `json:"url"`
				MediaType string `json:"media_type"`
				Backend   string `json:"backend"`
				Status    string `json:"status"`
				BytesSent int64  `json:"bytes_sent"`
			} `json:"records"`
		}
		json.Unmarshal(body, &result)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tTYPE\tBACKEND\tSTATUS\tBYTES")
		for _, r := range result.Records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
				truncate(r.ID, 8), truncate(r.URL, 40), r.MediaType, r.Backend, r.Status, r.BytesSent)
		}
		w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate download statistics",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(serverURL + "/api/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var stats map[string]interface{}
		json.Unmarshal(body, &stats)
		for _, key := range []string{"total", "completed", "failed", "started"} {
			fmt.Printf("%-10s %v\n", key+":", stats[key])
		}
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the tail of the server error log",
	Run: func(cmd *cobra.Command, args []string) {
		secret, _ := cmd.Flags().GetString("secret")

		resp, err := http.Get(serverURL + "/api/logs?secret=" + url.QueryEscape(secret))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result struct {
			Tail string `json:"tail"`
		}
		json.Unmarshal(body, &result)
		fmt.Print(result.Tail)
	},
}

// filenameFromHeader pulls the filename out of a Content-Disposition
// header, falling back to a generic name.
func filenameFromHeader(disposition string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	return "download.bin"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func main() {
	downloadCmd.Flags().String("type", "video", "Media type: audio or video")
	downloadCmd.Flags().String("itag", "", "Explicit format id")
	downloadCmd.Flags().StringP("output", "o", "", "Output file (default: server-provided filename)")
	historyCmd.Flags().Int("limit", 20, "Maximum records to show")
	logsCmd.Flags().String("secret", "", "Debug log secret")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
