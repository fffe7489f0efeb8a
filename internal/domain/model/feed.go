package model

import (
	"regexp"
	"time"
)

// Post kinds.
const (
	PostRound = "round"
	PostText  = "text"
)

// Post is a feed entry: a submitted round or a free-text update.
type Post struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	UserID   string    `json:"user_id"`
	Round    *Round    `json:"round,omitempty"`
	Author   string    `json:"author"`
	Caption  string    `json:"caption"`
	Posted   time.Time `json:"posted_at"`
	Age      string    `json:"age"`
	Likes    int       `json:"likes"`
	Comments int       `json:"comments"`
	IsLiked  bool      `json:"is_liked"`

	TaggedUsers   []string `json:"tagged_users,omitempty"`
	TaggedCourses []string `json:"tagged_courses,omitempty"`
}

// TextPost is a stored free-text update.
type TextPost struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Content       string    `json:"content"`
	TaggedUsers   []string  `json:"tagged_users,omitempty"`
	TaggedCourses []string  `json:"tagged_courses,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

var (
	userTag   = regexp.MustCompile(`@(\w+)`)
	courseTag = regexp.MustCompile(`#(\w+)`)
)

// ParseTags extracts @user and #course tags from content in order of
// first appearance, without the marker and without repeats.
func ParseTags(content string) (users, courses []string) {
	return tags(userTag, content), tags(courseTag, content)
}

func tags(re *regexp.Regexp, content string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// Comment is a remark left on a round or post.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	RoundID   string    `json:"round_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CourseRanking is one place in a player's personal course ranking.
type CourseRanking struct {
	Rank     int    `json:"rank"`
	CourseID string `json:"course_id"`
	Name     string `json:"course_name"`
	Location string `json:"location"`

	// Set when the ranking is derived from the player's rounds.
	Rounds  int     `json:"rounds,omitempty"`
	Average float64 `json:"average_score,omitempty"`
}
