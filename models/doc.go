// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

Ballots are submitted as a ranking of candidate IDs, most preferred first.
Closed polls carry a ResultSnapshot: the winner (nil when no candidate is
unbeaten alone), the finishing order, every head-to-head pair with its
margin and whether it was locked, and the preference matrix indexed by
candidate position.
*/
package models
