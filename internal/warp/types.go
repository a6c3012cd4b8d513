package warp

// registerRequest is the body posted to the registration endpoint. The field
// set mirrors what the official mobile client sends; the service rejects
// registrations without the terms-of-service timestamp.
type registerRequest struct {
	Key         string `json:"key"`
	WarpEnabled bool   `json:"warp_enabled"`
	Tos         string `json:"tos"`
	Type        string `json:"type"`
	Locale      string `json:"locale"`
}

// registerResponse mirrors the subset of the registration response this
// client consumes. The schema is an opaque versioned contract owned by the
// service; unknown fields are ignored and required ones are checked after
// decoding.
type registerResponse struct {
	ID     string `json:"id"`
	Config struct {
		ClientCfg struct {
			Reserved []int `json:"reserved"`
		} `json:"client_cfg"`
		Peers []struct {
			PublicKey string `json:"public_key"`
			Endpoint  struct {
				V4   string `json:"v4"`
				V6   string `json:"v6"`
				Host string `json:"host"`
			} `json:"endpoint"`
		} `json:"peers"`
		Interface struct {
			Addresses struct {
				V4 string `json:"v4"`
				V6 string `json:"v6"`
			} `json:"addresses"`
		} `json:"interface"`
	} `json:"config"`
}
