package reddit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redditarchive/pkg/models"
)

func decode(t *testing.T, raw string) *Link {
	t.Helper()
	var l Link
	require.NoError(t, json.Unmarshal([]byte(raw), &l))
	return &l
}

func TestLinkMediaRefs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []models.MediaRef
	}{
		{
			name: "self post",
			raw:  `{"id":"s","is_self":true,"url":"https://www.reddit.com/r/x/comments/s/"}`,
			want: nil,
		},
		{
			name: "direct image",
			raw:  `{"id":"i","url":"https://i.redd.it/abc.JPG?width=10"}`,
			want: []models.MediaRef{{URL: "https://i.redd.it/abc.JPG?width=10", Type: models.MediaImage}},
		},
		{
			name: "image hint without extension",
			raw:  `{"id":"h","url":"https://imgur.com/xyz","post_hint":"image"}`,
			want: []models.MediaRef{{URL: "https://imgur.com/xyz", Type: models.MediaImage}},
		},
		{
			name: "hosted video",
			raw:  `{"id":"v","url":"https://v.redd.it/v","secure_media":{"reddit_video":{"fallback_url":"https://v.redd.it/v/DASH_720.mp4"}}}`,
			want: []models.MediaRef{{URL: "https://v.redd.it/v/DASH_720.mp4", Type: models.MediaVideo}},
		},
		{
			name: "gallery in display order",
			raw: `{"id":"g","is_gallery":true,"url":"https://www.reddit.com/gallery/g",
				"gallery_data":{"items":[{"media_id":"two"},{"media_id":"bad"},{"media_id":"one"}]},
				"media_metadata":{
					"one":{"status":"valid","s":{"u":"https://i.redd.it/one.png"}},
					"two":{"status":"valid","s":{"gif":"https://i.redd.it/two.gif"}},
					"bad":{"status":"failed"}}}`,
			want: []models.MediaRef{
				{URL: "https://i.redd.it/two.gif", Type: models.MediaImage},
				{URL: "https://i.redd.it/one.png", Type: models.MediaImage},
			},
		},
		{
			name: "external page",
			raw:  `{"id":"p","url":"https://example.com/story"}`,
			want: []models.MediaRef{{URL: "https://example.com/story", Type: models.MediaPage}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decode(t, tt.raw).Item().Media)
		})
	}
}

func TestFullnames(t *testing.T) {
	assert.Equal(t, "t3_abc", Fullname(KindLink, "abc"))
	assert.Equal(t, "abc", SplitFullname("t3_abc"))
	assert.Equal(t, "abc", SplitFullname("abc"))
	assert.Equal(t, "my_post", SplitFullname("my_post"))
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "spez", SanitizeUsername(" u/spez/ "))
	assert.Equal(t, "spez", SanitizeUsername("/user/spez"))
	assert.Equal(t, "spez", SanitizeUsername("spez"))
}

func TestUserListingPath(t *testing.T) {
	assert.Equal(t, "/user/spez/saved", UserListingPath("spez", ListingSaved))
}
