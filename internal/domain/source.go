package domain

// Source describes one maccms10-style catalog API endpoint.
// Sources are loaded once from configuration and never mutated afterwards.
type Source struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	API       string `json:"api"`
	VerifyTLS bool   `json:"verify_tls"`
}
