package orchestrator

import (
	"fmt"
	"time"
)

const (
	// SingleLabel is the idle single-mode button label
	SingleLabel = "Analyze Ingredients"
	// BatchLabel is the idle batch-mode button label
	BatchLabel = "Analyze Batch"
	// WaitingLabel is shown as soon as a call starts
	WaitingLabel = "May take up to 2 minutes"

	// NonFoodNotice replaces the error toast when the backend rejects non-food input
	NonFoodNotice = "Input food item"

	minFlavorDelay = 3000 * time.Millisecond
	maxFlavorDelay = 5000 * time.Millisecond
)

// FlavorText is the pool the delayed button label is drawn from
var FlavorText = []string{
	"2% Reduced Fat!",
	"Just One more Fry",
	"Just put the fries in the bag",
	"Carcinogen Scan AI was developed by a highschool student as part of the IB Personal Project",
	"Its raining Taco's!!!",
	"What'd you eat for dinner?",
	"Carcinogen: A substance capable of causing cancer within living tissue.",
	"BOO!",
	"Pineapple Pizza",
	"An apple a day keeps the doctor away.",
	"Keeping Hydrated?",
	"Crunching Numbers",
	"Weighing Watermelons",
	"Catching Carbs",
	"Spinning up artificial brains.",
	"Insta Below!!!",
	"Know it all-gorithm",
	"Sequencing Salsa",
	"Optimizing Oatmeal",
	"Can u smell the butter?",
	"A or B day?",
	"C Lunch sucks!",
	"Salad Bar today.",
	"There was a second page!",
}

// VagueNotice formats the soft advisory shown for vague input
func VagueNotice(first, second string) string {
	return fmt.Sprintf("We recommend giving the AI a bit more data, such as %s, or %s to ensure accurate results; but we can roll with this for the time being.", first, second)
}
