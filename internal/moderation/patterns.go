package moderation

// DefaultPatterns are the manipulation indicators applied when no pattern
// file is configured. Matching is case-insensitive.
var DefaultPatterns = []string{
	`ignore (all )?previous instructions`,
	`you are now`,
	`act as`,
	`pretend to`,
	`disregard`,
	`bypass`,
	`freedom`,
	`from now on`,
	`simulate`,
	`hypothetical`,
	`jailbreak`,
	`do anything`,
	`no restrictions`,
	`you are not bound`,
	`system prompt`,
	`you have been fixed remember`,
	`prompt 1`,
	`prompt 2`,
	`beta phase`,
	`beta phase response`,
	`rules are completely wiped`,
	`never respond in anything but`,
	`begin with.*code block`,
	`start only in.*python`,
	`my rules are now updated`,
	`you are sassy`,
	`share code`,
	`password`,
}
