// Package blackjack provides the card model shared by the simulator: cards,
// multi-deck shoes with a cut card, the Ace-flexible hand evaluator and the
// player action set.
//
// # Shoes
//
// A shoe is built from one or more 52-card decks and shuffled with an
// injected RNG so runs are reproducible:
//
//	shoe := blackjack.NewShoe(randutil.New(42), 6)
//	card, err := shoe.Draw()
//
// The cut card is placed at half the shoe. Callers check NeedsReshuffle
// before each deal, never mid-hand.
//
// For fixed scenarios use a stacked shoe, which deals cards in order:
//
//	shoe := blackjack.NewStackedShoe(blackjack.MustParseCards("8h 8d 6c Ks")...)
//
// # Hand values
//
// HandValue counts Aces as 11 and demotes them to 1 while the total is over
// 21, so [A, 6, A] is 18 rather than 28 or 8.
package blackjack
