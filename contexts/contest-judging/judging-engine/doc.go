// Package judgingengine implements contest judging inside the contest-judging
// context.
//
// The module owns the contest phase clock, category and criteria
// configuration, the vote and score ledgers, entry view tracking, and the
// stage advancement gate. Entries and user accounts are owned elsewhere and
// enter the module as projections. Business rules live in the domain and
// application layers; infrastructure stays behind ports and adapters.
package judgingengine
