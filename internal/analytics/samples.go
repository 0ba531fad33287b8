package analytics

import "time"

type sampleQuestion struct {
	id       string
	text     string
	count    int
	category string
	age      time.Duration
}

type sampleThread struct {
	id    string
	title string
	first string
	age   time.Duration
}

var sampleTopics = []Topic{
	{ID: "1", Topic: "Expense Reporting", Count: 89, Trend: TrendUp, Change: 12},
	{ID: "2", Topic: "PTO & Time Off", Count: 76, Trend: TrendUp, Change: 8},
	{ID: "3", Topic: "Client Onboarding", Count: 64, Trend: TrendStable, Change: 0},
	{ID: "4", Topic: "Healthcare Benefits", Count: 52, Trend: TrendDown, Change: -5},
	{ID: "5", Topic: "IT Support", Count: 48, Trend: TrendUp, Change: 15},
	{ID: "6", Topic: "Budget & Finance", Count: 41, Trend: TrendStable, Change: 2},
	{ID: "7", Topic: "Travel Policy", Count: 35, Trend: TrendUp, Change: 7},
	{ID: "8", Topic: "401(k) Contributions", Count: 28, Trend: TrendDown, Change: -3},
}

var sampleQuestions = []sampleQuestion{
	{"1", "How do I submit an expense report?", 45, "Finance", 1 * time.Hour},
	{"2", "What's the PTO policy for this year?", 38, "HR", 2 * time.Hour},
	{"3", "Where can I find client onboarding templates?", 32, "Operations", 3 * time.Hour},
	{"4", "What are the healthcare enrollment deadlines?", 28, "HR", 4 * time.Hour},
	{"5", "How do I request IT support for a new laptop?", 24, "IT", 5 * time.Hour},
	{"6", "What's the process for quarterly budget updates?", 21, "Finance", 6 * time.Hour},
	{"7", "Where can I find the employee travel policy?", 19, "HR", 7 * time.Hour},
	{"8", "How do I access the knowledge base?", 17, "General", 8 * time.Hour},
}

var sampleThreads = map[string][]sampleThread{
	"1": {
		{"t1-1", "Expense Report Submission Process", "How do I submit an expense report for client travel?", 60 * time.Minute},
		{"t1-2", "Receipt Requirements", "What supporting documents are required for expense reporting?", 120 * time.Minute},
		{"t1-3", "Expense Report Deadline", "Is there a deadline for submitting receipts after travel?", 180 * time.Minute},
		{"t1-4", "Reimbursement Timeline", "How long does it take to get reimbursed for expenses?", 240 * time.Minute},
		{"t1-5", "Mileage Reimbursement", "What's the current mileage reimbursement rate?", 300 * time.Minute},
		{"t1-6", "International Expense Reporting", "How do I handle expenses in foreign currency?", 360 * time.Minute},
		{"t1-7", "Corporate Card Policy", "Can I use my corporate card for client dinners?", 420 * time.Minute},
		{"t1-8", "Per Diem Rates", "What are the per diem rates for overnight travel?", 480 * time.Minute},
		{"t1-9", "Lost Receipt Protocol", "What should I do if I lost a receipt?", 540 * time.Minute},
		{"t1-10", "Expense Categories", "What expense categories should I use for supplies?", 600 * time.Minute},
	},
	"2": {
		{"t2-1", "PTO Balance Check", "Can you clarify how many PTO days I have left this year?", 30 * time.Minute},
		{"t2-2", "PTO Policy Details", "What's the PTO policy for this year?", 90 * time.Minute},
		{"t2-3", "Rollover Policy", "Do unused PTO days roll over to next year?", 150 * time.Minute},
		{"t2-4", "Holiday Schedule", "What are the company holidays for this year?", 210 * time.Minute},
		{"t2-5", "Sick Leave Policy", "How many sick days do I get per year?", 270 * time.Minute},
		{"t2-6", "PTO Request Process", "How far in advance should I request time off?", 330 * time.Minute},
		{"t2-7", "Bereavement Leave", "What's the policy for bereavement leave?", 390 * time.Minute},
		{"t2-8", "Parental Leave", "How much parental leave is offered?", 450 * time.Minute},
	},
	"3": {
		{"t3-1", "Onboarding Template Request", "Do we have a standardized client onboarding template?", 45 * time.Minute},
		{"t3-2", "Client Kickoff Materials", "Where can I find client onboarding templates?", 105 * time.Minute},
		{"t3-3", "Onboarding Checklist", "What's included in the client onboarding process?", 165 * time.Minute},
		{"t3-4", "Client Welcome Package", "What materials should I send to new clients?", 225 * time.Minute},
		{"t3-5", "First Meeting Agenda", "What should be covered in the initial client meeting?", 285 * time.Minute},
		{"t3-6", "Onboarding Timeline", "How long does the typical onboarding process take?", 345 * time.Minute},
	},
	"4": {
		{"t4-1", "Healthcare Enrollment Deadlines", "What are the healthcare enrollment deadlines?", 75 * time.Minute},
		{"t4-2", "Benefits Package Overview", "Can you explain the healthcare benefits options?", 135 * time.Minute},
		{"t4-3", "Dependent Coverage", "How do I add a dependent to my healthcare plan?", 195 * time.Minute},
		{"t4-4", "HSA vs FSA", "What's the difference between HSA and FSA?", 255 * time.Minute},
		{"t4-5", "Dental Coverage", "Does the plan include dental coverage?", 315 * time.Minute},
	},
	"5": {
		{"t5-1", "New Laptop Request", "How do I request IT support for a new laptop?", 55 * time.Minute},
		{"t5-2", "Software Installation", "Who do I contact for software installation help?", 115 * time.Minute},
		{"t5-3", "VPN Access Issues", "I'm having trouble connecting to the VPN", 175 * time.Minute},
		{"t5-4", "Password Reset", "How do I reset my network password?", 235 * time.Minute},
		{"t5-5", "Email Access Problem", "I can't access my email on my phone", 295 * time.Minute},
		{"t5-6", "Printer Setup", "How do I connect to the office printer?", 355 * time.Minute},
		{"t5-7", "Monitor Request", "Can I request an additional monitor for my desk?", 415 * time.Minute},
	},
}
