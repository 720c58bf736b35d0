package catalog

import "encoding/json"

// flexString decodes a JSON value that sources emit as either a string or a
// number; vod_id and vod_year vary per source.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

type listResponse struct {
	List []listItem `json:"list"`
}

type listItem struct {
	VodID      flexString `json:"vod_id"`
	VodName    string     `json:"vod_name"`
	VodTime    string     `json:"vod_time"`
	TypeName   string     `json:"type_name"`
	VodRemarks string     `json:"vod_remarks"`
}

type detailResponse struct {
	List []detailItem `json:"list"`
}

type detailItem struct {
	VodID       flexString `json:"vod_id"`
	VodName     string     `json:"vod_name"`
	VodPic      string     `json:"vod_pic"`
	VodArea     string     `json:"vod_area"`
	VodLang     string     `json:"vod_lang"`
	VodYear     flexString `json:"vod_year"`
	VodActor    string     `json:"vod_actor"`
	VodDirector string     `json:"vod_director"`
	VodContent  string     `json:"vod_content"`
	VodRemarks  string     `json:"vod_remarks"`
	VodPlayURL  string     `json:"vod_play_url"`
}

// DetailRecord carries the secondary metadata returned by an ac=detail call.
type DetailRecord struct {
	Name     string
	Poster   string
	Area     string
	Language string
	Year     string
	Actor    string
	Director string
	Synopsis string
	Remarks  string
	PlayURL  string
}
