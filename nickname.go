package accounts

import (
	"fmt"
	"math/rand/v2"
	"regexp"
)

// nicknameRe captures the nickname rule: starts with a letter, 3-30
// characters, alphanumeric plus underscore or hyphen.
var nicknameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{2,29}$`)

var nicknameAdjectives = []string{"clever", "jolly", "brave", "sly", "gentle"}

var nicknameAnimals = []string{"panda", "fox", "raccoon", "koala", "lion"}

// GenerateNickname returns a random adjective_animal_number nickname that
// satisfies ValidNickname. Uniqueness is the caller's problem.
func GenerateNickname() string {
	adjective := nicknameAdjectives[rand.IntN(len(nicknameAdjectives))]
	animal := nicknameAnimals[rand.IntN(len(nicknameAnimals))]
	number := rand.IntN(1000)
	return fmt.Sprintf("%s_%s_%d", adjective, animal, number)
}

// ValidNickname reports whether value satisfies the nickname syntax rule.
func ValidNickname(value string) bool {
	return nicknameRe.MatchString(value)
}
