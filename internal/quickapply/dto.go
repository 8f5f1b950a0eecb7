package quickapply

type submitResponse struct {
	Success    bool   `json:"success"`
	TrackToken string `json:"trackToken"`
}
