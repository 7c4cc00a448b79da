/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package matching

// SampleData is the word list used when nothing was shared or saved.
const SampleData = `
polite — shows good manners and respect
rude — not polite; impolite or offensive
shy — nervous or uncomfortable with people
confident — sure of yourself; not shy
hard-working — puts in a lot of effort
lazy — not liking to work or be active
creative — good at thinking of new ideas
honest — tells the truth; not lying
patient — able to wait calmly
impatient — not able to wait; easily annoyed
curly — with a lot of curls (hair)
straight — not curly or wavy (hair)
tall — of great height
short — of little height
slim — thin in a healthy way
plump — a little fat in a pleasant way
friendly — kind and pleasant to others
moody — changes feelings often and quickly
outgoing — sociable; enjoys meeting people
quiet — speaks little; not noisy
`
