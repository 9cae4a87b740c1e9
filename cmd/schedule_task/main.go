package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"coachdesk_app_echo/internal/models"
	"coachdesk_app_echo/internal/services"
	"coachdesk_app_echo/internal/tasks"
)

func main() {
	taskName := flag.String("task_name", "", "Name of the task")
	argsStr := flag.String("arguments", "{}", "JSON arguments for the task")
	dueStr := flag.String("due", "", "Due date (format: 2006-01-02 15:04 or RFC3339)")
	taskType := flag.String("tasktype", "onetime", "Task type (onetime or recurring)")
	recurring := flag.String("recurring", "", "Recurring interval rule (RFC 5545 RRULE)")
	maxAttempt := flag.Int("max_attempt", 3, "Max attempts")
	seed := flag.Bool("seed", false, "Seed the standard recurring tasks and exit")

	flag.Parse()

	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := services.InitDB(dsn)
	if err != nil {
		log.Fatalf("Failed to connect DB: %v", err)
	}

	if *seed {
		seedRecurringTasks(db)
		return
	}

	if *taskName == "" || *dueStr == "" {
		fmt.Println("Usage: schedule_task -task_name <name> -due <YYYY-MM-DD HH:MM> [options]")
		fmt.Println("       schedule_task -seed")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(*argsStr), &args); err != nil {
		log.Fatalf("Invalid JSON arguments: %v", err)
	}

	due, err := time.Parse(time.RFC3339, *dueStr)
	if err != nil {
		due, err = time.ParseInLocation("2006-01-02 15:04", *dueStr, time.Local)
		if err != nil {
			log.Fatalf("Invalid due date format. Use '2006-01-02 15:04' (Local) or RFC3339: %v", err)
		}
	}

	var recurringPtr *string
	if *recurring != "" {
		recurringPtr = recurring
	}

	task := models.ScheduledTask{
		TaskName:          *taskName,
		Arguments:         args,
		Due:               due,
		TaskType:          models.ScheduledTaskType(*taskType),
		RecurringInterval: recurringPtr,
		MaxAttempt:        *maxAttempt,
		Status:            models.ScheduledTaskStatusActive,
	}

	if err := db.Create(&task).Error; err != nil {
		log.Fatalf("Failed to create task: %v", err)
	}

	fmt.Printf("Successfully created task ID: %d\n", task.ID)
	fmt.Printf("Task: %s\nDue: %s\nType: %s\n", task.TaskName, task.Due, task.TaskType)
}

// seedRecurringTasks registers the standing background jobs: the nightly
// package expiry sweep and the morning lead follow-up digest. Seeding is
// idempotent, an existing active task with the same name is left alone.
func seedRecurringTasks(db *gorm.DB) {
	now := time.Now()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	nextMorning := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, now.Location())
	if nextMorning.Before(now) {
		nextMorning = nextMorning.AddDate(0, 0, 1)
	}
	daily := "FREQ=DAILY"

	sweep, err := tasks.ExpireEntitlementsTask.CreateTask(nextMidnight, daily)
	if err != nil {
		log.Fatalf("Failed to build expiry sweep task: %v", err)
	}
	reminder, err := tasks.LeadFollowUpTask.CreateTask(nextMorning, daily)
	if err != nil {
		log.Fatalf("Failed to build follow-up reminder task: %v", err)
	}

	for _, task := range []*models.ScheduledTask{sweep, reminder} {
		var count int64
		err := db.Model(&models.ScheduledTask{}).
			Where("task_name = ? AND status = ?", task.TaskName, models.ScheduledTaskStatusActive).
			Count(&count).Error
		if err != nil {
			log.Fatalf("Failed to check existing tasks: %v", err)
		}
		if count > 0 {
			fmt.Printf("Task %s already seeded, skipping\n", task.TaskName)
			continue
		}
		if err := db.Create(task).Error; err != nil {
			log.Fatalf("Failed to seed task %s: %v", task.TaskName, err)
		}
		fmt.Printf("Seeded task %s (ID: %d), first run %s\n", task.TaskName, task.ID, task.Due)
	}
}
