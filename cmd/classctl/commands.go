package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/JonMunkholm/classdata/internal/catalog"
	"github.com/JonMunkholm/classdata/internal/query"
	"github.com/JonMunkholm/classdata/internal/tabular"
)

// dbFlags read the same environment variables as the server. Flags keep
// parse state, so every command gets its own.
func dbFlags(extra ...cli.Flag) []cli.Flag {
	return append(extra,
		&cli.StringFlag{Name: "db-driver", Value: "sqlite", EnvVars: []string{"DB_DRIVER"}, Usage: "sqlite or postgres"},
		&cli.StringFlag{Name: "db-url", Value: "data/catalog.db", EnvVars: []string{"DATABASE_URL", "DB_URL"}, Usage: "sqlite file or postgres URL"},
	)
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "classctl",
		Usage:  "inspect and seed the classdata store",
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "create catalog tables and insert reference data into empty tables",
				Flags:  dbFlags(),
				Action: seedAction,
			},
			{
				Name:  "courses",
				Usage: "list courses",
				Flags: dbFlags(
					&cli.StringFlag{Name: "subject", Usage: "exact subject"},
					&cli.StringFlag{Name: "level", Usage: "exact level"},
				),
				Action: coursesAction,
			},
			{
				Name:  "resources",
				Usage: "list study resources",
				Flags: dbFlags(
					&cli.StringFlag{Name: "category", Usage: "exact category"},
					&cli.StringFlag{Name: "search", Usage: "substring of title or description"},
				),
				Action: resourcesAction,
			},
			{
				Name:  "students",
				Usage: "show the top students by grade",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Value: "data/students.csv", EnvVars: []string{"DATA_STUDENTS_PATH"}, Usage: "students CSV"},
					&cli.IntFlag{Name: "top", Value: 5, EnvVars: []string{"STUDENTS_TOP_DEFAULT"}, Usage: "number of students"},
				},
				Action: studentsAction,
			},
		},
	}
}

func openCatalog(c *cli.Context) (*catalog.Store, error) {
	store, err := catalog.Open(c.Context, catalog.Config{
		Driver: c.String("db-driver"),
		URL:    c.String("db-url"),
	})
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(c.Context); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func seedAction(c *cli.Context) error {
	store, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer store.Close()

	inserted, err := store.Seed(c.Context)
	if err != nil {
		return err
	}
	counts, err := store.Counts(c.Context)
	if err != nil {
		return err
	}

	out := c.App.Writer
	heading(out, "Catalog seed")
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Table", "Inserted", "Total"})
	for _, name := range []string{catalog.TableCourses, catalog.TableResources} {
		table.Append([]string{name, strconv.Itoa(inserted[name]), strconv.FormatInt(counts[name], 10)})
	}
	table.Render()
	return nil
}

func coursesAction(c *cli.Context) error {
	return withCatalog(c, func(ctx context.Context, store *catalog.Store) error {
		courses, err := store.Courses(ctx, catalog.CourseFilter{
			Subject: c.String("subject"),
			Level:   c.String("level"),
		})
		if err != nil {
			return err
		}

		out := c.App.Writer
		heading(out, fmt.Sprintf("Courses (%d)", len(courses)))
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"ID", "Subject", "Level", "Topic", "Equation"})
		for _, co := range courses {
			table.Append([]string{strconv.FormatInt(co.ID, 10), co.Subject, co.Level, co.Topic, co.Equation})
		}
		table.Render()
		return nil
	})
}

func resourcesAction(c *cli.Context) error {
	return withCatalog(c, func(ctx context.Context, store *catalog.Store) error {
		resources, err := store.Resources(ctx, catalog.ResourceFilter{
			Category: c.String("category"),
			Search:   c.String("search"),
		})
		if err != nil {
			return err
		}

		out := c.App.Writer
		heading(out, fmt.Sprintf("Resources (%d)", len(resources)))
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"ID", "Category", "Title", "URL"})
		for _, r := range resources {
			table.Append([]string{strconv.FormatInt(r.ID, 10), r.Category, r.Title, r.URL})
		}
		table.Render()
		return nil
	})
}

func withCatalog(c *cli.Context, fn func(context.Context, *catalog.Store) error) error {
	store, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(c.Context, store)
}

func studentsAction(c *cli.Context) error {
	n := c.Int("top")
	if n < 0 {
		return fmt.Errorf("--top must be >= 0, got %d", n)
	}

	tables, err := tabular.Open(tabular.StudentsSpec(c.String("file")))
	if err != nil {
		return err
	}
	students, _ := tables.Table(tabular.Students)

	rows, err := query.TopN(students, "grade", n)
	if err != nil {
		return err
	}

	out := c.App.Writer
	heading(out, fmt.Sprintf("Top %d students", len(rows)))
	table := tablewriter.NewWriter(out)
	table.SetHeader(students.ColumnNames())
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = tabular.FormatValue(v)
		}
		table.Append(cells)
	}
	table.Render()

	return printAverage(out, students)
}

// printAverage writes the mean grade, or nothing when no grade is set.
func printAverage(w io.Writer, students *tabular.Table) error {
	mean, ok, err := query.Mean(students, "grade")
	if err != nil {
		return fmt.Errorf("average grade: %w", err)
	}
	if ok {
		fmt.Fprintf(w, "average grade: %.2f\n", query.Round2(mean))
	}
	return nil
}

func heading(w io.Writer, text string) {
	color.New(color.FgYellow, color.Bold).Fprintln(w, "\n"+text)
}
