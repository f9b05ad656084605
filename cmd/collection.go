package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"restbench/internal/collection"
	"restbench/internal/format"
	"restbench/internal/model"
)

var collectionDescription string

func init() {
	collectionCmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Manage request collections",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all collections",
		Run:   runCollectionList,
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionCreate,
	}
	createCmd.Flags().StringVar(&collectionDescription, "description", "", "Collection description")

	showCmd := &cobra.Command{
		Use:   "show <name or id>",
		Short: "Show requests in a collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionShow,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name or id>",
		Short: "Delete a collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionDelete,
	}

	renameCmd := &cobra.Command{
		Use:   "rename <name or id> <new name>",
		Short: "Rename a collection",
		Args:  cobra.ExactArgs(2),
		Run:   runCollectionRename,
	}
	renameCmd.Flags().StringVar(&collectionDescription, "description", "", "Collection description")

	addCmd := &cobra.Command{
		Use:   "add <collection> <name> <method> <url>",
		Short: "Add a request to a collection",
		Long: `Add a request to a collection.

Example:
  restbench collection add my-api "Get Users" GET https://api.example.com/users`,
		Args: cobra.MinimumNArgs(4),
		Run:  runCollectionAdd,
	}
	addCmd.Flags().StringArrayVarP(&headerPairs, "header", "H", []string{}, "Add header")
	addCmd.Flags().StringVar(&headersJSON, "headers-json", "", "Request headers as a JSON object")
	addCmd.Flags().StringVarP(&data, "data", "d", "", "Request body")

	removeCmd := &cobra.Command{
		Use:   "remove <collection> <item-id>",
		Short: "Remove a request from a collection",
		Args:  cobra.ExactArgs(2),
		Run:   runCollectionRemove,
	}

	openCmd := &cobra.Command{
		Use:   "open <name or id>",
		Short: "Expand a collection and list its requests",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionOpen,
	}

	runCmd := &cobra.Command{
		Use:   "run <name or id>",
		Short: "Run all requests in a collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionRun,
	}

	collectionCmd.AddCommand(listCmd, createCmd, showCmd, deleteCmd, renameCmd, addCmd, removeCmd, openCmd, runCmd)
	rootCmd.AddCommand(collectionCmd)
}

// loadCollections builds the app and hydrates the collection store.
func loadCollections(cmd *cobra.Command) *app {
	a, err := newApp(cmd)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to load collections: %v", err))
		os.Exit(1)
	}

	if _, err := a.cols.LoadAll(cmd.Context()); err != nil {
		format.PrintError(fmt.Sprintf("Failed to load collections: %v", err))
		os.Exit(1)
	}
	return a
}

// resolveCollection finds a collection by name or id, exiting when missing.
func resolveCollection(a *app, key string) model.Collection {
	col, ok := a.cols.Find(key)
	if !ok {
		format.PrintError(fmt.Sprintf("Collection '%s' not found", key))
		os.Exit(1)
	}
	return col
}

func runCollectionList(cmd *cobra.Command, args []string) {
	a := loadCollections(cmd)
	format.PrintCollectionList(a.cols.Collections(), "")
}

func runCollectionCreate(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to create collection: %v", err))
		os.Exit(1)
	}

	col, err := a.cols.Create(cmd.Context(), args[0], collectionDescription)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to create collection: %v", err))
		os.Exit(1)
	}

	format.PrintSuccess(fmt.Sprintf("Collection '%s' created", col.Name))
}

func runCollectionShow(cmd *cobra.Command, args []string) {
	a := loadCollections(cmd)
	format.PrintCollectionItems(resolveCollection(a, args[0]))
}

func runCollectionDelete(cmd *cobra.Command, args []string) {
	a := loadCollections(cmd)
	col := resolveCollection(a, args[0])

	if err := a.cols.Delete(cmd.Context(), col.ID); err != nil {
		format.PrintError(fmt.Sprintf("Failed to delete collection: %v", err))
		os.Exit(1)
	}

	format.PrintSuccess(fmt.Sprintf("Collection '%s' deleted", col.Name))
}

func runCollectionRename(cmd *cobra.Command, args []string) {
	a := loadCollections(cmd)
	col := resolveCollection(a, args[0])

	description := collectionDescription
	if description == "" {
		description = col.Description
	}

	if err := a.cols.Rename(cmd.Context(), col.ID, args[1], description); err != nil {
		format.PrintError(fmt.Sprintf("Failed to rename collection: %v", err))
		os.Exit(1)
	}

	format.PrintSuccess(fmt.Sprintf("Collection renamed to '%s'", args[1]))
}

func runCollectionAdd(cmd *cobra.Command, args []string) {
	a := loadCollections(cmd)
	col := resolveCollection(a, args[0])

	draft := collection.ItemDraft{
		Name:    args[1],
		Method:  args[2],
		URL:     args[3],
		Headers: headersText(),
		Body:    data,
	}

	item, err := a.cols.AddItem(cmd.Context(), col.ID, draft)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to add request: %v", err))
		os.Exit(1)
	}

	format.PrintSuccess(fmt.Sprintf("Request '%s' added to collection '%s'", item.Name, col.Name))
}

func runCollectionRemove(cmd *cobra.Command, args []string) {
	a := loadCollections(cmd)
	col := resolveCollection(a, args[0])

	if err := a.cols.RemoveItem(cmd.Context(), col.ID, args[1]); err != nil {
		format.PrintError(fmt.Sprintf("Failed to remove request: %v", err))
		os.Exit(1)
	}

	format.PrintSuccess(fmt.Sprintf("Request removed from collection '%s'", col.Name))
}

func runCollectionOpen(cmd *cobra.Command, args []string) {
	a := loadCollections(cmd)
	col := resolveCollection(a, args[0])

	a.cols.SetActive(col.ID)
	active := a.cols.Active()
	if active == nil {
		format.PrintSuccess(fmt.Sprintf("Collection '%s' collapsed", col.Name))
		return
	}

	format.PrintCollectionList(a.cols.Collections(), active.ID)
	fmt.Println()
	format.PrintCollectionItems(*active)
}

func runCollectionRun(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	a := loadCollections(cmd)
	col := resolveCollection(a, args[0])

	if len(col.Items) == 0 {
		format.PrintError(fmt.Sprintf("Collection '%s' is empty", col.Name))
		os.Exit(1)
	}

	fmt.Printf("Running %d requests from collection '%s'\n\n", len(col.Items), col.Name)

	for i, item := range col.Items {
		if item.Name != "" {
			fmt.Printf("[%d/%d] %s\n", i+1, len(col.Items), item.Name)
		} else {
			fmt.Printf("[%d/%d] %s %s\n", i+1, len(col.Items), item.Method, item.URL)
		}

		a.bench.LoadItem(item)
		rec, _ := a.bench.Submit(cmd.Context())
		format.PrintResponse(rec, verbose)
		fmt.Println()
	}

	format.PrintSuccess(fmt.Sprintf("Completed running collection '%s'", col.Name))
}
