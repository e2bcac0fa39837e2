// Command trainclient drives a training session against a running server,
// submitting WAV files as the child's recordings for each cycle.
package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"speech-training-service/internal/models"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

func main() {
	server := flag.String("server", "http://localhost:8080", "HTTP API base URL")
	clientID := flag.String("client", "client-1", "Client ID")
	specialistID := flag.String("specialist", "specialist-1", "Specialist ID")
	difficulty := flag.String("difficulty", "medium", "Difficulty (easy, medium, hard)")
	age := flag.Int("age", 0, "Override the client's age")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		log.Fatal("Usage: trainclient [flags] recording.wav [recording.wav ...]")
	}
	for _, f := range files {
		if err := checkWAV(f); err != nil {
			log.Fatalf("Invalid audio %s: %v", f, err)
		}
	}

	c := &client{base: *server, http: &http.Client{Timeout: 90 * time.Second}}

	body, _ := json.Marshal(map[string]any{
		"clientId":     *clientID,
		"specialistId": *specialistID,
		"difficulty":   *difficulty,
		"age":          *age,
	})
	msgs, err := c.do(http.MethodPost, "/v1/sessions", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	printMessages(msgs)
	if len(msgs) == 0 {
		log.Fatal("Server returned no messages")
	}
	sessionID := msgs[0].SessionID

	// Cycle through the files until the session reaches a terminal message.
	for i := 0; !terminal(msgs); i++ {
		file := files[i%len(files)]
		log.Printf("Submitting %s for cycle %d", file, msgs[len(msgs)-1].CurrentCycle)

		msgs, err = c.submit(sessionID, file)
		if err != nil {
			log.Fatalf("Failed to submit audio: %v", err)
		}
		printMessages(msgs)
	}

	log.Printf("Session %s finished", sessionID)
}

type client struct {
	base string
	http *http.Client
}

func (c *client) do(method, path, contentType string, body io.Reader) ([]models.Message, error) {
	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(data))
	}

	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return msgs, nil
}

func (c *client) submit(sessionID, file string) ([]models.Message, error) {
	audio, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", file)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return c.do(http.MethodPost, "/v1/sessions/"+sessionID+"/audio", mw.FormDataContentType(), &buf)
}

// checkWAV validates the RIFF header and warns about formats the
// transcription providers are not configured for.
func checkWAV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return fmt.Errorf("not a WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	if audioFormat != 1 { // PCM
		return fmt.Errorf("only PCM format supported, got %d", audioFormat)
	}
	if sampleRate != 16000 || numChannels != 1 || bitsPerSample != 16 {
		log.Printf("Warning: %s is %d Hz, %d channels, %d bits; expected 16000 Hz mono 16-bit",
			path, sampleRate, numChannels, bitsPerSample)
	}
	return nil
}

func terminal(msgs []models.Message) bool {
	for _, m := range msgs {
		if m.Terminal {
			return true
		}
	}
	return false
}

func printMessages(msgs []models.Message) {
	for _, m := range msgs {
		switch {
		case m.CycleResult != nil:
			fmt.Printf("[%s] %s\n", m.Type, m.Text)
			for _, w := range m.CycleResult.Words {
				fmt.Printf("    %-12s heard %-12q %.2f %s\n", w.Expected, w.Transcribed, w.Similarity, w.Feedback)
			}
		case len(m.Words) > 0:
			fmt.Printf("[%s] %s %v\n", m.Type, m.Text, m.Words)
		default:
			fmt.Printf("[%s] %s\n", m.Type, m.Text)
		}
	}
}
