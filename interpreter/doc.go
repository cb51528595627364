// Package interpreter dispatches tokenized G-code lines to command handlers.
//
// Each line is split into command groups. A group led by a G or M word
// resolves to that word's code (e.g. "G1") and makes it the modal command;
// a group of bare parameter words resolves to the current modal command.
// This is what lets a G1 block continue on lines holding only X/Y words.
//
// For every resolved command the handlers registered in Options.Handlers
// and then those exposed by Options.Commands fire with the group's
// arguments. Options.DefaultHandler only fires when neither had a match.
package interpreter
