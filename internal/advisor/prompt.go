package advisor

import (
	"fmt"
	"strings"
)

// SystemPrompt constrains every model reply to bare JSON.
const SystemPrompt = "Return JSON only."

// TaxonomyPrompt asks for one to three scientific candidates for name.
func TaxonomyPrompt(name string) string {
	return fmt.Sprintf(`You are a plant taxonomy assistant. The user named a plant %q (common or scientific name).
Reply with a JSON array of 1 to 3 likely matches. Each element is an object with lowercase keys
family, genus, species and, only when a well-known cultivar applies, cultivar. No other text.`, name)
}

// CarePlanPrompt asks for a beginner care plan shaped like CarePlan.
func CarePlanPrompt(req CarePlanRequest) string {
	placement := string(req.InOut)
	if placement == "" {
		placement = "indoor"
	}
	situation := strings.TrimSpace(placement + " " + string(req.Exposure))
	pot := ""
	if req.PotSizeIn > 0 {
		pot = fmt.Sprintf(" The current pot is %g inches across.", req.PotSizeIn)
	}
	return fmt.Sprintf(`You are a plant care assistant. Write a beginner-friendly care plan for %q grown %s.%s
Reply with one JSON object using exactly these keys:
family, genus, species, cultivar (empty string if none),
lightLevel ("low", "medium" or "high"),
soilType ("generic", "aroid" or "cactus"),
baseIntervalDays (number, baseline days between waterings),
tasks (array of {"type": "fertilize"|"repot"|"prune"|"inspect"|"mist", "everyDays": number}),
careSummary (string),
potDiameterIn (number, suggested pot diameter in inches).
No other text.`, req.Name, situation, pot)
}
