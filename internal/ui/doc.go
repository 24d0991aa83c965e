// Package ui implements the interactive terminal shell using bubbletea's Elm architecture.
//
// The shell has four modes:
//  1. [BootMode] : A spinner shown until the stored session has been restored
//  2. [BrowseMode] : A sidebar of sections next to the items of the mounted section
//  3. [SearchMode] : A text input whose submission navigates to search results
//  4. [ConfirmMode] : A yes/no question guarding a destructive action
//
// The [Model] implements bubbletea's Init/Update/View pattern, receiving fetch results via the Msg union type.
// Every section fetch goes through a [sections.View], so a slow response that arrives after a newer navigation
// is dropped instead of rendered.
//
// Single-letter keys switch sections (w/r/f/p/h/o/a), / opens search, enter follows a link, esc goes back and d
// asks to remove the selected item. Contextual help is displayed via charmbracelet/bubbles/help.
package ui
