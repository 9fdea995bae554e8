package field

import "encoding/json"

type fieldJSON struct {
	TFEN   string   `json:"tfen"`
	Turn   int      `json:"turn"`
	Final  int      `json:"final_turn"`
	Scores [2]Score `json:"scores"`
}

// MarshalJSON encodes the board as its TFEN string plus derived scores.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldJSON{
		TFEN:   EncodeTFEN(f),
		Turn:   f.nowTurn,
		Final:  f.finalTurn,
		Scores: f.scores,
	})
}

// UnmarshalJSON decodes the "tfen" member; the other members are derived.
func (f *Field) UnmarshalJSON(data []byte) error {
	var raw fieldJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	dec, err := DecodeTFEN(raw.TFEN)
	if err != nil {
		return err
	}
	*f = *dec
	return nil
}
